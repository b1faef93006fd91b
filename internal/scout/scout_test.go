package scout

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/degree"
	"github.com/spigell/jobthai-scout/internal/filtering"
	"github.com/spigell/jobthai-scout/internal/fuzzy"
	"github.com/spigell/jobthai-scout/internal/history"
	"github.com/spigell/jobthai-scout/internal/jobthai"
	"github.com/spigell/jobthai-scout/internal/notify"
	"github.com/spigell/jobthai-scout/internal/pacing"
	"github.com/spigell/jobthai-scout/internal/qualify"
	"github.com/spigell/jobthai-scout/internal/thaidate"
)

// 2026-10-15 is a Thursday.
var today = time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

type fakePage struct {
	id        string
	updated   string
	education []candidate.EducationEntry
}

func (p *fakePage) Fields() candidate.RawProfileFields {
	return candidate.RawProfileFields{
		candidate.FieldID:        p.id,
		candidate.FieldFirstName: "name-" + p.id,
		candidate.FieldUpdated:   p.updated,
		candidate.FieldPosition1: "QC Officer",
	}
}

func (p *fakePage) FullText() string                      { return "อายุ 25 ปี" }
func (p *fakePage) Education() []candidate.EducationEntry { return p.education }
func (p *fakePage) Company(int) (string, bool)            { return "", false }
func (p *fakePage) HasPhoto() bool                        { return false }

func qualified(id, updated string) *fakePage {
	return &fakePage{id: id, updated: updated, education: []candidate.EducationEntry{{
		Institution: "มหาวิทยาลัยราชภัฏวไลยอลงกรณ์",
		Faculty:     "คณะวิทยาศาสตร์",
		Major:       "วิทยาศาสตร์เครื่องสำอาง",
		DegreeLabel: "ปริญญาตรี",
	}}}
}

func unqualified(id string) *fakePage {
	return &fakePage{id: id, updated: "15 ตุลาคม 2569", education: []candidate.EducationEntry{{
		Institution: "Harvard",
		Major:       "Law",
		DegreeLabel: "Master",
	}}}
}

type fakePortal struct {
	loginErr error
	results  map[string][]string
	pages    map[string]*fakePage
	searched []string
	opened   []string
	closed   bool
}

func (p *fakePortal) Login(context.Context) error { return p.loginErr }

func (p *fakePortal) Search(_ context.Context, kw string) error {
	p.searched = append(p.searched, kw)
	if _, ok := p.results[kw]; !ok {
		return jobthai.ErrNoResults
	}
	return nil
}

func (p *fakePortal) Links(context.Context) ([]string, error) {
	return p.results[p.searched[len(p.searched)-1]], nil
}

func (p *fakePortal) Open(_ context.Context, link string) (Page, error) {
	p.opened = append(p.opened, link)
	page, ok := p.pages[link]
	if !ok {
		return nil, errors.New("timeout")
	}
	return page, nil
}

func (p *fakePortal) SaveImage(context.Context, jobthai.PhotoPage, string) (string, error) {
	return "", nil
}

func (p *fakePortal) Close() error {
	p.closed = true
	return nil
}

type sent struct {
	subject string
	ids     []string
}

type fakeNotifier struct {
	err    error
	sent   []sent
	onSend func()
}

func (n *fakeNotifier) Send(_ context.Context, subject string, records []*candidate.Record) error {
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	n.sent = append(n.sent, sent{subject: subject, ids: ids})
	if n.onSend != nil {
		n.onSend()
	}
	return n.err
}

type fakeRecorder struct {
	err     error
	batches [][]string
}

func (r *fakeRecorder) Name() string { return "fake" }

func (r *fakeRecorder) Append(_ context.Context, records []*candidate.Record) error {
	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	r.batches = append(r.batches, ids)
	return r.err
}

type fixture struct {
	portal   *fakePortal
	notifier *fakeNotifier
	recorder *fakeRecorder
	history  *history.History
	scout    *Scout
}

func newFixture(t *testing.T, keywords ...string) *fixture {
	t.Helper()

	dates := thaidate.New(time.UTC)
	dates.Now = func() time.Time { return today }

	f := &fixture{
		portal: &fakePortal{
			results: map[string][]string{
				"cosmetic": {"/r/hot", "/r/rejected", "/r/broken", "/r/old", "/r/batch"},
				"qc":       {"/r/hot"},
			},
			pages: map[string]*fakePage{
				"/r/hot":      qualified("HOT", "15 ตุลาคม 2569"),
				"/r/rejected": unqualified("NO"),
				"/r/old":      qualified("OLD", "5 กันยายน 2569"),
				"/r/batch":    qualified("BATCH", "5 ตุลาคม 2569"),
			},
		},
		notifier: &fakeNotifier{},
		recorder: &fakeRecorder{},
		history:  history.New(),
	}

	steps := []filtering.Filter{filtering.NewDuplicates(zap.NewNop())}

	f.scout = &Scout{
		Portal: f.portal,
		Builder: &candidate.Builder{
			Dates:     dates,
			Qualifier: qualify.New(fuzzy.New(fuzzy.DefaultThreshold), degree.NewRanker(nil)),
			Targets: qualify.Targets{
				Institutions: []string{"วไลยอลงกรณ์"},
				Faculties:    []string{"เครื่องสำอาง"},
				Majors:       []string{"เครื่องสำอาง"},
			},
			Matcher: fuzzy.New(fuzzy.DefaultThreshold),
		},
		Filters: filtering.New(steps, zap.NewNop()),
		Router: notify.NewRouter(f.notifier, f.history, notify.Options{
			Policy:   notify.DefaultPolicy(),
			FlushDay: time.Monday,
			Now:      func() time.Time { return today },
		}),
		Recorder: f.recorder,
		History:  f.history,
		Pacer:    pacing.New(pacing.Config{}, nil),
		Logger:   zap.NewNop(),
		Options: Options{
			Keywords:    keywords,
			HistoryFile: filepath.Join(t.TempDir(), "history.json"),
		},
	}
	return f
}

func TestRunProcessesKeywords(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic", "missing", "qc")
	res, err := f.scout.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Keywords != 3 || res.Links != 6 {
		t.Fatalf("keywords %d links %d", res.Keywords, res.Links)
	}
	if res.Rejected != 1 || res.Failed != 1 || res.Filtered != 1 {
		t.Fatalf("rejected %d failed %d filtered %d", res.Rejected, res.Failed, res.Filtered)
	}
	if got := res.Records.IDs(); len(got) != 3 || got[0] != "HOT" || got[1] != "OLD" || got[2] != "BATCH" {
		t.Fatalf("records = %v", got)
	}

	// Only the hot candidate is sent: the batch is not due on a Thursday.
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].subject != notify.HotSubject("cosmetic", "name-HOT") {
		t.Fatalf("notifications = %+v", f.notifier.sent)
	}
	if len(f.recorder.batches) != 1 || len(f.recorder.batches[0]) != 3 {
		t.Fatalf("recorded = %v", f.recorder.batches)
	}

	if res.Decisions[notify.DecisionHot] != 1 || res.Decisions[notify.DecisionBatched] != 1 || res.Decisions[notify.DecisionStoreOnly] != 1 {
		t.Fatalf("decisions = %v", res.Decisions)
	}

	saved, err := history.Load(f.scout.Options.HistoryFile)
	if err != nil {
		t.Fatalf("history.Load() error = %v", err)
	}
	if _, ok := saved.Last("HOT"); !ok || saved.Len() != 1 {
		t.Fatalf("history entries = %v", saved.Entries())
	}
}

func TestRunManualFlushesDigest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic")
	f.scout.Router = notify.NewRouter(f.notifier, f.history, notify.Options{
		Policy:   notify.DefaultPolicy(),
		FlushDay: time.Monday,
		Manual:   true,
		Now:      func() time.Time { return today },
	})

	if _, err := f.scout.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.notifier.sent) != 2 {
		t.Fatalf("notifications = %+v", f.notifier.sent)
	}
	digest := f.notifier.sent[1]
	if digest.subject != notify.DigestSubject("cosmetic", 1) || digest.ids[0] != "BATCH" {
		t.Fatalf("digest = %+v", digest)
	}
}

func TestRunLoginFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic")
	f.portal.loginErr = jobthai.ErrLoginFailed

	_, err := f.scout.Run(context.Background())
	if !errors.Is(err, jobthai.ErrLoginFailed) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.portal.searched) != 0 {
		t.Fatalf("searched after failed login")
	}
}

func TestRunCollectsSinkErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic")
	f.notifier.err = errors.New("smtp down")
	f.recorder.err = errors.New("sheet quota")

	res, err := f.scout.Run(context.Background())
	if err == nil {
		t.Fatalf("expected joined sink errors")
	}
	for _, want := range []string{"smtp down", "sheet quota"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q lacks %q", err, want)
		}
	}
	if res.Records.Len() != 3 {
		t.Fatalf("records still processed: %d", res.Records.Len())
	}
	if f.history.Len() != 0 {
		t.Fatalf("failed sends must not reach the history")
	}
}

func TestRunDryRunKeepsHistoryFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic")
	f.scout.Options.DryRun = true

	if _, err := f.scout.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	saved, err := history.Load(f.scout.Options.HistoryFile)
	if err != nil {
		t.Fatalf("history.Load() error = %v", err)
	}
	if saved.Len() != 0 {
		t.Fatalf("dry run wrote history: %v", saved.Entries())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic", "qc")
	f.scout.Pacer = pacing.New(pacing.Config{ProfileMin: time.Hour, ProfileMax: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.scout.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.portal.searched) != 1 {
		t.Fatalf("searched %v after cancel", f.portal.searched)
	}
}

func TestRunInterruptedKeepsSentAndRoutedRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "cosmetic", "qc")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// SIGINT arrives right after the hot candidate went out.
	f.notifier.onSend = cancel

	_, err := f.scout.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.portal.searched) != 1 {
		t.Fatalf("searched %v after cancel", f.portal.searched)
	}

	saved, err := history.Load(f.scout.Options.HistoryFile)
	if err != nil {
		t.Fatalf("history.Load() error = %v", err)
	}
	if _, ok := saved.Last("HOT"); !ok {
		t.Fatalf("sent candidate missing from saved history: %v", saved.Entries())
	}

	if len(f.recorder.batches) != 1 || len(f.recorder.batches[0]) != 1 || f.recorder.batches[0][0] != "HOT" {
		t.Fatalf("recorded = %v", f.recorder.batches)
	}
}
