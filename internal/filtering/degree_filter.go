package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

type degreeFilter struct {
	toggle
	minRank int
}

// NewMinDegree creates a filter that drops candidates whose highest degree
// ranks below minRank.
func NewMinDegree(minRank int) Filter {
	f := &degreeFilter{minRank: minRank}
	if minRank <= 0 {
		f.Disable("no minimum degree")
	}
	return f
}

func (f *degreeFilter) Name() string { return "min_degree" }

func (f *degreeFilter) Validate() error { return nil }

func (f *degreeFilter) Apply(_ context.Context, rs *candidate.Records) (*candidate.Records, Step, error) {
	initial := rs.Len()
	removed := rs.Keep(func(r *candidate.Record) bool { return r.DegreeRank >= f.minRank })

	return rs, Step{Initial: initial, Dropped: len(removed), Left: rs.Len()}, nil
}

func (f *degreeFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_rank": strconv.Itoa(f.minRank)},
	}
}
