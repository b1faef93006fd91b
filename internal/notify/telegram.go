package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/textnorm"
)

const (
	telegramMessageLimit = 4096
	telegramCaptionLimit = 1024
)

// botAPI is the part of tgbotapi.BotAPI the sink uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts candidates to a chat. A hot candidate with a saved photo is
// sent as a photo with caption; everything else as HTML text split to fit the
// message limit.
type Telegram struct {
	bot    botAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return newTelegram(bot, chatID, logger), nil
}

func newTelegram(bot botAPI, chatID int64, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, subject string, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	if KindFrom(ctx) == KindHot && len(records) == 1 && fileExists(records[0].ImagePath) {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FilePath(records[0].ImagePath))
		photo.Caption = textnorm.Truncate(formatTelegram(subject, records), telegramCaptionLimit-3)
		photo.ParseMode = tgbotapi.ModeHTML
		if _, err := t.bot.Send(photo); err != nil {
			return fmt.Errorf("sending photo: %w", err)
		}
		return nil
	}

	for _, chunk := range splitMessages(subject, records, telegramMessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
	t.logger.Info("telegram message sent", zap.String("subject", subject), zap.Int("count", len(records)))
	return nil
}

func formatTelegram(subject string, records []*candidate.Record) string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(subject) + "</b>\n")
	for _, r := range records {
		b.WriteString("\n" + formatCandidate(r))
	}
	return b.String()
}

func formatCandidate(r *candidate.Record) string {
	return fmt.Sprintf(
		"🎓 <b>%s</b> (%s)\n"+
			"🏫 %s\n"+
			"💼 %s\n"+
			"🏢 %s\n"+
			"💰 %s - %s\n"+
			"🕒 %s\n"+
			"🔗 <a href=\"%s\">เปิดดู</a>\n",
		html.EscapeString(r.Name), html.EscapeString(r.ID),
		html.EscapeString(r.DegreeLabel+" "+r.MatchedInstitution),
		html.EscapeString(r.PositionsText()),
		html.EscapeString(r.WorkHistoryText()),
		r.Salary.Min, r.Salary.Max,
		html.EscapeString(r.LastUpdate),
		html.EscapeString(r.Link),
	)
}

// splitMessages packs candidate blocks into messages no longer than limit
// bytes. A single oversized block is truncated.
func splitMessages(subject string, records []*candidate.Record, limit int) []string {
	head := "<b>" + html.EscapeString(subject) + "</b>\n"

	var (
		out     []string
		current = head
	)
	for _, r := range records {
		block := "\n" + formatCandidate(r)
		if len(current)+len(block) > limit && current != head {
			out = append(out, current)
			current = head
		}
		current += block
		if len(current) > limit {
			current = truncateBytes(current, limit)
		}
	}
	return append(out, current)
}

func truncateBytes(s string, limit int) string {
	for len(s) > limit {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
