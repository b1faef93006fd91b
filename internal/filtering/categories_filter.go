package filtering

import (
	"context"
	"slices"
	"strings"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

type categoriesFilter struct {
	toggle
	required []string
}

// NewCategories creates a filter that keeps only candidates tagged with at
// least one of the required position categories.
func NewCategories(required []string) Filter {
	f := &categoriesFilter{required: required}
	if len(required) == 0 {
		f.Disable("no categories required")
	}
	return f
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) Validate() error { return nil }

func (f *categoriesFilter) Apply(_ context.Context, rs *candidate.Records) (*candidate.Records, Step, error) {
	initial := rs.Len()

	removed := rs.Keep(func(r *candidate.Record) bool {
		return slices.ContainsFunc(r.Categories, f.wanted)
	})

	return rs, Step{Initial: initial, Dropped: len(removed), Left: rs.Len()}, nil
}

func (f *categoriesFilter) wanted(category string) bool {
	return slices.ContainsFunc(f.required, func(r string) bool {
		return strings.EqualFold(r, category)
	})
}

func (f *categoriesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"required": strings.Join(f.required, ",")},
	}
}
