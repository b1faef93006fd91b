package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/history"
	"github.com/spigell/jobthai-scout/internal/logger"
)

// Decision is the routing outcome for one record.
type Decision int

const (
	// DecisionStoreOnly: the record is stored but not notified.
	DecisionStoreOnly Decision = iota
	// DecisionHot: sent on its own right away.
	DecisionHot
	// DecisionBatched: appended to the keyword digest.
	DecisionBatched
	// DecisionSuppressed: notified recently, skipped.
	DecisionSuppressed
	// DecisionFlushed: the record triggered sending the pending digest.
	DecisionFlushed
)

func (d Decision) String() string {
	switch d {
	case DecisionHot:
		return "hot"
	case DecisionBatched:
		return "batched"
	case DecisionSuppressed:
		return "suppressed"
	case DecisionFlushed:
		return "flushed"
	default:
		return "store_only"
	}
}

// Policy holds the recency windows, in days.
type Policy struct {
	HotDays       int
	BatchDays     int
	HotCooldown   int
	BatchCooldown int
	// UseHistory enables suppression of recently notified candidates.
	UseHistory bool
}

// DefaultPolicy: hot within 1 day, digest within 30, cooldowns of 1 and 7
// days, history suppression off.
func DefaultPolicy() Policy {
	return Policy{HotDays: 1, BatchDays: 30, HotCooldown: 1, BatchCooldown: 7}
}

// Options configure a Router.
type Options struct {
	Policy Policy
	// FlushDay is the weekday digests are sent on.
	FlushDay time.Weekday
	// Manual forces digests regardless of the weekday.
	Manual   bool
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

// HotSubject is the subject of an immediate notification.
func HotSubject(keyword, name string) string {
	return fmt.Sprintf("🔥 [HOT] พบผู้สมัครด่วน (%s): %s", keyword, name)
}

// DigestSubject is the subject of a keyword digest.
func DigestSubject(keyword string, n int) string {
	return fmt.Sprintf("สรุปผู้สมัครรายสัปดาห์: %s (%d คน)", keyword, n)
}

// Router decides per record whether to notify now, batch or only store. It
// keeps one digest batch for the current keyword. Not safe for concurrent use.
type Router struct {
	notifier Notifier
	history  *history.History
	opts     Options
	logger   *zap.Logger

	keyword string
	batch   []*candidate.Record
	errs    []error
	counts  map[Decision]int
}

// NewRouter builds a router. A nil history disables both suppression and
// marking.
func NewRouter(n Notifier, h *history.History, opts Options) *Router {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{
		notifier: n,
		history:  h,
		opts:     opts,
		logger:   logger.OrNop(opts.Logger),
		counts:   make(map[Decision]int),
	}
}

// Begin starts routing for keyword and discards any batch left over.
func (r *Router) Begin(keyword string) {
	if len(r.batch) > 0 {
		r.logger.Warn("dropping unflushed batch", zap.String("keyword", r.keyword), zap.Int("count", len(r.batch)))
	}
	r.keyword = keyword
	r.batch = nil
}

// Pending returns the number of records waiting in the batch.
func (r *Router) Pending() int {
	return len(r.batch)
}

// FlushDue reports whether digests may be sent today.
func (r *Router) FlushDue() bool {
	return r.opts.Manual || r.today().Weekday() == r.opts.FlushDay
}

// Route handles one record. Send failures are kept for End and never stop
// routing.
func (r *Router) Route(ctx context.Context, rec *candidate.Record) Decision {
	d := r.route(ctx, rec)
	r.counts[d]++

	r.logger.Debug("routed candidate",
		append(logger.CandidateFields(rec.ID, r.keyword, rec.Link),
			zap.Int("days_since_update", rec.DaysSinceUpdate),
			zap.Stringer("decision", d),
		)...,
	)
	return d
}

func (r *Router) route(ctx context.Context, rec *candidate.Record) Decision {
	p := r.opts.Policy
	today := r.today()

	switch days := rec.DaysSinceUpdate; {
	case days <= p.HotDays:
		if r.suppressed(rec.ID, today, p.HotCooldown) {
			return DecisionSuppressed
		}
		r.logger.Info("hot candidate", logger.CandidateFields(rec.ID, r.keyword, rec.Link)...)
		r.send(WithKind(ctx, KindHot), HotSubject(r.keyword, rec.Name), []*candidate.Record{rec})
		return DecisionHot

	case days <= p.BatchDays:
		if r.suppressed(rec.ID, today, p.BatchCooldown) {
			return DecisionSuppressed
		}
		r.batch = append(r.batch, rec)
		return DecisionBatched

	default:
		if len(r.batch) > 0 && r.FlushDue() {
			r.flush(ctx)
			return DecisionFlushed
		}
		return DecisionStoreOnly
	}
}

// End flushes the remaining batch when digests are due, clears it and
// returns every send failure of the keyword.
func (r *Router) End(ctx context.Context) error {
	if len(r.batch) > 0 {
		if r.FlushDue() {
			r.flush(ctx)
		} else {
			r.logger.Info("digest not due, batch kept for storage only",
				zap.String("keyword", r.keyword),
				zap.Int("count", len(r.batch)),
			)
		}
	}
	r.batch = nil

	err := errors.Join(r.errs...)
	r.errs = nil
	return err
}

// Counts returns how many records got each decision so far.
func (r *Router) Counts() map[Decision]int {
	out := make(map[Decision]int, len(r.counts))
	for d, n := range r.counts {
		out[d] = n
	}
	return out
}

func (r *Router) flush(ctx context.Context) {
	batch := r.batch
	r.batch = nil

	r.logger.Info("sending digest", zap.String("keyword", r.keyword), zap.Int("count", len(batch)))
	r.send(WithKind(ctx, KindDigest), DigestSubject(r.keyword, len(batch)), batch)
}

func (r *Router) send(ctx context.Context, subject string, records []*candidate.Record) {
	if err := r.notifier.Send(ctx, subject, records); err != nil {
		r.logger.Error("notification failed", zap.String("subject", subject), zap.Error(err))
		r.errs = append(r.errs, fmt.Errorf("%s: %w", subject, err))
		return
	}

	if r.history == nil {
		return
	}
	today := r.today()
	for _, rec := range records {
		r.history.Mark(rec.ID, today)
	}
}

func (r *Router) suppressed(id string, today time.Time, cooldown int) bool {
	if !r.opts.Policy.UseHistory || r.history == nil || id == "" {
		return false
	}
	if r.history.NotifiedWithin(id, today, cooldown) {
		r.logger.Debug("suppressed by history", zap.String(logger.FieldCandidate, id), zap.Int("cooldown_days", cooldown))
		return true
	}
	return false
}

func (r *Router) today() time.Time {
	t := r.opts.Now().In(r.opts.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.opts.Location)
}
