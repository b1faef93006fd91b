// Package notify routes qualified candidates to immediate or digest
// notifications and delivers them through the configured sinks.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// Notifier delivers one message about an ordered list of candidates.
type Notifier interface {
	Send(ctx context.Context, subject string, records []*candidate.Record) error
}

// Kind tells sinks which layout a message should use.
type Kind int

const (
	KindDigest Kind = iota
	KindHot
)

type kindKey struct{}

// WithKind attaches the message kind to ctx.
func WithKind(ctx context.Context, kind Kind) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

// KindFrom returns the kind attached to ctx, KindDigest by default.
func KindFrom(ctx context.Context) Kind {
	if kind, ok := ctx.Value(kindKey{}).(Kind); ok {
		return kind
	}
	return KindDigest
}

// Named sinks report their name in logs and errors.
type Named interface {
	Name() string
}

func nameOf(n Notifier) string {
	if named, ok := n.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", n)
}

// Multi sends every message through all sinks concurrently. A failing sink
// does not stop the others; their errors are joined.
type Multi struct {
	notifiers []Notifier
}

// NewMulti fans out to notifiers.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Send(ctx context.Context, subject string, records []*candidate.Record) error {
	errs := make([]error, len(m.notifiers))

	var g errgroup.Group
	for i, n := range m.notifiers {
		g.Go(func() error {
			if err := n.Send(ctx, subject, records); err != nil {
				errs[i] = fmt.Errorf("%s: %w", nameOf(n), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Log is a sink that only writes the message to the logger. Dry runs use it.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a logging sink.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Send(ctx context.Context, subject string, records []*candidate.Record) error {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	l.logger.Info("notification",
		zap.String("subject", subject),
		zap.Bool("hot", KindFrom(ctx) == KindHot),
		zap.Strings("candidates", ids),
	)
	return nil
}
