package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

func records(items ...*candidate.Record) *candidate.Records {
	return &candidate.Records{Items: items}
}

func TestExcludeFileFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := records(&candidate.Record{ID: "R-2"}).ToExcluded("hired", time.Now())
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	f := NewExcludeFile(path)
	rs, step, err := f.Apply(context.Background(), records(&candidate.Record{ID: "R-1"}, &candidate.Record{ID: "R-2"}))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if step != (Step{Initial: 2, Dropped: 1, Left: 1}) {
		t.Fatalf("unexpected step %+v", step)
	}
	if rs.Items[0].ID != "R-1" {
		t.Fatalf("unexpected records %v", rs.IDs())
	}

	if NewExcludeFile("").IsEnabled() {
		t.Fatalf("expected filter without path to be disabled")
	}
}

func TestExcludeFileFilterBrokenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := NewExcludeFile(path).Apply(context.Background(), records(&candidate.Record{ID: "1"})); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCategoriesFilter(t *testing.T) {
	t.Parallel()

	f := NewCategories([]string{"npd", "RA"})
	rs, step, err := f.Apply(context.Background(), records(
		&candidate.Record{ID: "1", Categories: []string{"NPD"}},
		&candidate.Record{ID: "2", Categories: []string{"Sales"}},
		&candidate.Record{ID: "3"},
		&candidate.Record{ID: "4", Categories: []string{"Sales", "RA"}},
	))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if want := []string{"1", "4"}; !reflect.DeepEqual(rs.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, rs.IDs())
	}
	if step.Dropped != 2 {
		t.Fatalf("expected 2 dropped, got %+v", step)
	}
}

func TestMinDegreeFilter(t *testing.T) {
	t.Parallel()

	rs, _, err := NewMinDegree(2).Apply(context.Background(), records(
		&candidate.Record{ID: "b", DegreeRank: 1},
		&candidate.Record{ID: "m", DegreeRank: 2},
		&candidate.Record{ID: "d", DegreeRank: 3},
	))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if want := []string{"m", "d"}; !reflect.DeepEqual(rs.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, rs.IDs())
	}
}

func TestDuplicatesFilterAcrossCalls(t *testing.T) {
	t.Parallel()

	f := NewDuplicates(nil)
	ctx := context.Background()

	first, _, _ := f.Apply(ctx, records(&candidate.Record{ID: "1", Keyword: "a"}, &candidate.Record{}))
	if first.Len() != 2 {
		t.Fatalf("expected both records kept, got %v", first.IDs())
	}

	second, step, _ := f.Apply(ctx, records(&candidate.Record{ID: "1", Keyword: "b"}, &candidate.Record{}))
	if second.Len() != 1 || second.Items[0].ID != "" || step.Dropped != 1 {
		t.Fatalf("expected repeated id to be dropped, got %v %+v", second.IDs(), step)
	}
}

type failingFilter struct{ toggle }

func (f *failingFilter) Name() string    { return "failing" }
func (f *failingFilter) Validate() error { return errors.New("not ready") }
func (f *failingFilter) Apply(context.Context, *candidate.Records) (*candidate.Records, Step, error) {
	return nil, Step{}, errors.New("boom")
}

func TestRunFiltersAccumulatesTotals(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	steps := []Filter{NewDuplicates(nil), NewMinDegree(1), NewCategories(nil), &failingFilter{}}
	DisableByName(steps, "failing", "test")

	pipeline := New(steps, zap.New(core))
	if err := pipeline.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx := context.Background()
	for _, r := range []*candidate.Record{{ID: "1", DegreeRank: 1}, {ID: "1", DegreeRank: 1}, {ID: "2"}} {
		if _, err := pipeline.RunFilters(ctx, records(r)); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	if got := pipeline.Totals("duplicates"); got != (Step{Initial: 3, Dropped: 1, Left: 2}) {
		t.Fatalf("unexpected duplicates totals %+v", got)
	}
	if got := pipeline.Totals("min_degree"); got != (Step{Initial: 2, Dropped: 1, Left: 1}) {
		t.Fatalf("unexpected min_degree totals %+v", got)
	}

	pipeline.LogSummary()
	if n := observed.FilterMessage("filter step").Len(); n != 2 {
		t.Fatalf("expected 2 summary entries, got %d", n)
	}
	if n := observed.FilterMessage("filter disabled").Len(); n != 2 {
		t.Fatalf("expected 2 disabled entries, got %d", n)
	}
}

func TestRunFiltersStopsOnError(t *testing.T) {
	t.Parallel()

	pipeline := New([]Filter{&failingFilter{}}, nil)
	if err := pipeline.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := pipeline.RunFilters(context.Background(), records(&candidate.Record{ID: "1"})); err == nil {
		t.Fatalf("expected apply error")
	}
}
