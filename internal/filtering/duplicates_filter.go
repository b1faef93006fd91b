package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

type duplicatesFilter struct {
	toggle
	seen   map[string]string
	logger *zap.Logger
}

// NewDuplicates creates a filter that drops a candidate already reported
// earlier in the run, e.g. found again under another keyword. Records without
// an id are always kept.
func NewDuplicates(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &duplicatesFilter{seen: make(map[string]string), logger: logger}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Validate() error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, rs *candidate.Records) (*candidate.Records, Step, error) {
	initial := rs.Len()
	removed := rs.Keep(func(r *candidate.Record) bool {
		if r.ID == "" {
			return true
		}
		if first, ok := f.seen[r.ID]; ok {
			f.logger.Debug("candidate already seen",
				zap.String("candidate_id", r.ID),
				zap.String("first_keyword", first),
				zap.String("keyword", r.Keyword),
			)
			return false
		}
		f.seen[r.ID] = r.Keyword
		return true
	})

	return rs, Step{Initial: initial, Dropped: len(removed), Left: rs.Len()}, nil
}
