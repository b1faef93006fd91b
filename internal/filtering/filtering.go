// Package filtering drops qualified candidates that should not be reported,
// one step at a time.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// Filter represents a single filtering step applied to candidate records.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, rs *candidate.Records) (*candidate.Records, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

func (s *Step) add(o Step) {
	s.Initial += o.Initial
	s.Dropped += o.Dropped
	s.Left += o.Left
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Filtering runs a fixed list of steps and keeps running totals per step.
type Filtering struct {
	steps  []Filter
	logger *zap.Logger
	totals map[string]*Step
}

// New builds a pipeline over steps.
func New(steps []Filter, logger *zap.Logger) *Filtering {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filtering{steps: steps, logger: logger, totals: make(map[string]*Step)}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Validate checks every enabled step.
func (f *Filtering) Validate() error {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// RunFilters applies the enabled steps in order. It stops early once no
// records are left.
func (f *Filtering) RunFilters(ctx context.Context, rs *candidate.Records) (*candidate.Records, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if rs.Len() == 0 {
			break
		}

		next, info, err := step.Apply(ctx, rs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		total, ok := f.totals[step.Name()]
		if !ok {
			total = &Step{}
			f.totals[step.Name()] = total
		}
		total.add(info)

		rs = next
	}

	return rs, nil
}

// Totals returns the accumulated statistics of a step.
func (f *Filtering) Totals(name string) Step {
	if total, ok := f.totals[name]; ok {
		return *total
	}
	return Step{}
}

// LogSummary writes one entry per step with the totals of the run.
func (f *Filtering) LogSummary() {
	for _, status := range f.Describe() {
		if !status.Enabled {
			f.logger.Info("filter disabled", zap.String("name", status.Name), zap.String("reason", status.Reason))
			continue
		}
		total := f.Totals(status.Name)
		f.logger.Info("filter step",
			zap.String("name", status.Name),
			zap.Int("initial", total.Initial),
			zap.Int("dropped", total.Dropped),
			zap.Int("left", total.Left),
		)
	}
}

// Describe returns status entries for the pipeline steps.
func (f *Filtering) Describe() []Status {
	return Describe(f.steps)
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle is embedded by filters that can be switched off at runtime.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
