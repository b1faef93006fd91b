package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

const (
	hotCompanyHeader    = "ประวัติบริษัท"
	digestCompanyHeader = "เคยทำงานบริษัท"
	footer              = "ระบบอัตโนมัติ JobThai Scout"

	defaultEmailTimeout = 30 * time.Second
)

var emailTemplate = template.Must(template.New("email").Parse(`<html>
<head>
<style>
  table { border-collapse: collapse; width: 100%; font-size: 14px; }
  th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
  th { background-color: #f2f2f2; }
  tr:nth-child(even) { background-color: #f9f9f9; }
  .btn { background-color: #28a745; color: #ffffff !important; padding: 5px 10px; text-decoration: none; display: inline-block; border-radius: 4px; font-size: 12px; font-weight: bold; }
</style>
</head>
<body>
<h3>{{.Subject}}</h3>
<table>
  <tr>
    <th style="width: 10%;">รูปภาพ</th>
    <th style="width: 15%;">{{.CompanyHeader}}</th>
    <th style="width: 10%;">ระดับการศึกษาสูงสุด</th>
    <th style="width: 10%;">รหัสใบสมัคร</th>
    <th style="width: 15%;">ชื่อ-นามสกุล</th>
    <th style="width: 5%;">อายุ</th>
    <th style="width: 15%;">ตำแหน่งที่สมัคร</th>
    <th style="width: 8%;">เงินเดือนขั้นต่ำ</th>
    <th style="width: 8%;">เงินเดือนสูงสุด</th>
    <th style="width: 10%;">อัพเดทล่าสุด</th>
    <th style="width: 10%;">ลิงก์</th>
  </tr>
{{- range .Rows}}
  <tr>
    <td style="text-align: center;">{{if .ImageSrc}}<img src="{{.ImageSrc}}" width="80" style="border-radius: 5px;">{{else}}<span style="color:gray;">No Image</span>{{end}}</td>
    <td style="font-weight: {{if .NoCompany}}bold{{else}}normal{{end}};">{{.Companies}}</td>
    <td>{{.Degree}}</td>
    <td>{{.ID}}</td>
    <td>{{.Name}}</td>
    <td>{{.Age}}</td>
    <td>{{.Positions}}</td>
    <td>{{.SalaryMin}}</td>
    <td>{{.SalaryMax}}</td>
    <td>{{.LastUpdate}}</td>
    <td style="text-align: center;"><a href="{{.Link}}" target="_blank" class="btn">เปิดดู</a></td>
  </tr>
{{- end}}
</table>
<br><p><i>{{.Footer}}</i></p>
</body>
</html>
`))

type emailView struct {
	Subject       string
	CompanyHeader string
	Rows          []emailRow
	Footer        string
}

type emailRow struct {
	ImageSrc   template.URL
	Companies  string
	NoCompany  bool
	Degree     string
	ID         string
	Name       string
	Age        string
	Positions  string
	SalaryMin  string
	SalaryMax  string
	LastUpdate string
	Link       string
}

type inlineImage struct {
	cid  string
	path string
}

// SendFunc delivers one message. The default dials the SMTP server for every
// call and gives up when ctx is done.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// EmailConfig configures the SMTP sink.
type EmailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Receivers []string
	// Timeout bounds dialing and each SMTP command. Zero means 30s.
	Timeout time.Duration
}

// Email sends an HTML table of candidates with their photos inlined. Each
// receiver gets a separate message.
type Email struct {
	cfg    EmailConfig
	send   SendFunc
	logger *zap.Logger
}

// NewEmail returns an SMTP sink authenticating as the sender over STARTTLS.
func NewEmail(cfg EmailConfig, logger *zap.Logger) (*Email, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmailTimeout
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Sender),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return newEmail(cfg, func(ctx context.Context, msg *mail.Msg) error {
		return client.DialAndSendWithContext(ctx, msg)
	}, logger), nil
}

func newEmail(cfg EmailConfig, send SendFunc, logger *zap.Logger) *Email {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Email{cfg: cfg, send: send, logger: logger}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, subject string, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	header := digestCompanyHeader
	if KindFrom(ctx) == KindHot {
		header = hotCompanyHeader
	}

	var errs []error
	for _, to := range e.cfg.Receivers {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := BuildMessage(e.cfg.Sender, to, subject, header, records)
		if err != nil {
			return fmt.Errorf("building message: %w", err)
		}

		if err := e.send(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
			continue
		}
		e.logger.Info("email sent", zap.String("subject", subject), zap.String("to", to))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// BuildMessage renders the HTML table into a message for one receiver. The
// candidates' photos are embedded and referenced by Content-ID.
func BuildMessage(from, to, subject, companyHeader string, records []*candidate.Record) (*mail.Msg, error) {
	view := emailView{Subject: subject, CompanyHeader: companyHeader, Footer: footer}

	var images []inlineImage
	for _, r := range records {
		row := emailRow{
			Companies:  r.CompaniesText(),
			NoCompany:  len(r.Companies) == 0,
			Degree:     r.DegreeLabel,
			ID:         r.ID,
			Name:       r.Name,
			Age:        r.Age,
			Positions:  r.PositionsText(),
			SalaryMin:  r.Salary.Min,
			SalaryMax:  r.Salary.Max,
			LastUpdate: r.LastUpdate,
			Link:       r.Link,
		}
		if r.ImagePath != "" && fileExists(r.ImagePath) {
			cid := "img_" + r.ID
			row.ImageSrc = template.URL("cid:" + cid)
			images = append(images, inlineImage{cid: cid, path: r.ImagePath})
		}
		view.Rows = append(view.Rows, row)
	}

	var html bytes.Buffer
	if err := emailTemplate.Execute(&html, view); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("receiver %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html.String())

	for _, img := range images {
		msg.EmbedFile(img.path, mail.WithFileContentID(img.cid))
	}
	return msg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
