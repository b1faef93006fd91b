// Package recorder stores every qualified candidate of a run, notified or
// not, in the configured tabular sinks.
package recorder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// Recorder appends candidate rows to a store.
type Recorder interface {
	Name() string
	Append(ctx context.Context, records []*candidate.Record) error
}

// Multi appends to every recorder in order. A failing recorder does not stop
// the rest.
type Multi struct {
	recorders []Recorder
	logger    *zap.Logger
}

// NewMulti combines recorders.
func NewMulti(logger *zap.Logger, recorders ...Recorder) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{recorders: recorders, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of recorders.
func (m *Multi) Len() int { return len(m.recorders) }

func (m *Multi) Append(ctx context.Context, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	var errs []error
	for _, r := range m.recorders {
		if err := r.Append(ctx, records); err != nil {
			m.logger.Error("recording failed", zap.String("sink", r.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		m.logger.Info("records stored", zap.String("sink", r.Name()), zap.Int("count", len(records)))
	}
	return errors.Join(errs...)
}
