package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

type excludeFileFilter struct {
	toggle
	path string
	ids  []string
}

// NewExcludeFile creates a filter that removes candidates listed in the
// exclude file. The file is read once, on the first Apply.
func NewExcludeFile(path string) Filter {
	f := &excludeFileFilter{path: path}
	if path == "" {
		f.Disable("no exclude file configured")
	}
	return f
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, rs *candidate.Records) (*candidate.Records, Step, error) {
	initial := rs.Len()

	if f.ids == nil {
		excluded, err := candidate.ExcludedFromFile(f.path)
		if err != nil {
			return rs, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
		}
		f.ids = excluded.IDs()
	}

	removed := rs.Exclude(f.ids)

	return rs, Step{Initial: initial, Dropped: len(removed), Left: rs.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"path": f.path},
	}
}
