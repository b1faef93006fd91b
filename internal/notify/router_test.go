package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/history"
)

type sentMessage struct {
	subject string
	kind    Kind
	ids     []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (n *recordingNotifier) Send(ctx context.Context, subject string, records []*candidate.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	n.sent = append(n.sent, sentMessage{subject: subject, kind: KindFrom(ctx), ids: ids})
	return n.err
}

// 2026-10-15 is a Thursday.
var thursday = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func rec(id string, days int) *candidate.Record {
	return &candidate.Record{ID: id, Name: "name-" + id, DaysSinceUpdate: days}
}

func newTestRouter(n Notifier, h *history.History, mutate func(*Options)) *Router {
	opts := Options{
		Policy:   DefaultPolicy(),
		FlushDay: time.Monday,
		Now:      func() time.Time { return thursday },
		Logger:   zap.NewNop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRouter(n, h, opts)
}

func TestRouteDecisions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		days   int
		manual bool
		want   Decision
		sends  int
	}{
		{name: "updated today is hot", days: 0, want: DecisionHot, sends: 1},
		{name: "updated yesterday is hot", days: 1, want: DecisionHot, sends: 1},
		{name: "within batch window", days: 12, want: DecisionBatched},
		{name: "old record only stored", days: 45, want: DecisionStoreOnly},
		{name: "old record with manual run and empty batch", days: 45, manual: true, want: DecisionStoreOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := &recordingNotifier{}
			r := newTestRouter(n, nil, func(o *Options) { o.Manual = tt.manual })
			r.Begin("QC")

			if got := r.Route(context.Background(), rec("A", tt.days)); got != tt.want {
				t.Fatalf("decision = %s, want %s", got, tt.want)
			}
			if len(n.sent) != tt.sends {
				t.Fatalf("sent %d messages, want %d", len(n.sent), tt.sends)
			}
		})
	}
}

func TestHotBypassesBatch(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := newTestRouter(n, nil, nil)
	r.Begin("QC")

	r.Route(context.Background(), rec("B1", 10))
	r.Route(context.Background(), rec("H1", 0))

	if r.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", r.Pending())
	}
	if len(n.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(n.sent))
	}
	msg := n.sent[0]
	if msg.kind != KindHot {
		t.Fatalf("kind = %v, want hot", msg.kind)
	}
	if msg.subject != HotSubject("QC", "name-H1") {
		t.Fatalf("subject = %q", msg.subject)
	}
}

func TestOldRecordWithoutDueFlushNeverSends(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := newTestRouter(n, nil, nil)
	r.Begin("QC")

	r.Route(context.Background(), rec("B1", 3))
	if got := r.Route(context.Background(), rec("OLD", 45)); got != DecisionStoreOnly {
		t.Fatalf("decision = %s, want store_only", got)
	}
	if len(n.sent) != 0 {
		t.Fatalf("sent %d messages, want none", len(n.sent))
	}
	if err := r.End(context.Background()); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatalf("End sent %d messages on a non-flush day", len(n.sent))
	}
	if r.Pending() != 0 {
		t.Fatalf("batch not cleared")
	}
}

func TestFlushOnScheduledDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "flush weekday", mutate: func(o *Options) { o.FlushDay = time.Thursday }},
		{name: "manual run", mutate: func(o *Options) { o.Manual = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := &recordingNotifier{}
			r := newTestRouter(n, nil, tt.mutate)
			r.Begin("R&D")

			r.Route(context.Background(), rec("B1", 3))
			r.Route(context.Background(), rec("B2", 20))
			if got := r.Route(context.Background(), rec("OLD", 60)); got != DecisionFlushed {
				t.Fatalf("decision = %s, want flushed", got)
			}
			if len(n.sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(n.sent))
			}
			msg := n.sent[0]
			if msg.kind != KindDigest || msg.subject != DigestSubject("R&D", 2) {
				t.Fatalf("unexpected digest %+v", msg)
			}
			if strings.Join(msg.ids, ",") != "B1,B2" {
				t.Fatalf("digest ids = %v", msg.ids)
			}
		})
	}
}

func TestEndFlushesWhenDue(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := newTestRouter(n, nil, func(o *Options) { o.Manual = true })
	r.Begin("QC")
	r.Route(context.Background(), rec("B1", 5))

	if err := r.End(context.Background()); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if len(n.sent) != 1 || n.sent[0].ids[0] != "B1" {
		t.Fatalf("unexpected sends %+v", n.sent)
	}
}

func TestHistorySuppression(t *testing.T) {
	t.Parallel()

	h := history.New()
	h.Mark("HOT", thursday)
	h.Mark("BATCH", thursday.AddDate(0, 0, -3))
	h.Mark("STALE", thursday.AddDate(0, 0, -10))

	n := &recordingNotifier{}
	r := newTestRouter(n, h, func(o *Options) { o.Policy.UseHistory = true })
	r.Begin("QC")

	cases := []struct {
		rec  *candidate.Record
		want Decision
	}{
		{rec: rec("HOT", 0), want: DecisionSuppressed},
		{rec: rec("BATCH", 8), want: DecisionSuppressed},
		{rec: rec("STALE", 8), want: DecisionBatched},
		{rec: rec("NEW", 0), want: DecisionHot},
	}
	for _, c := range cases {
		if got := r.Route(context.Background(), c.rec); got != c.want {
			t.Fatalf("%s: decision = %s, want %s", c.rec.ID, got, c.want)
		}
	}

	counts := r.Counts()
	if counts[DecisionSuppressed] != 2 || counts[DecisionHot] != 1 || counts[DecisionBatched] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestHistoryIgnoredWithoutUseHistory(t *testing.T) {
	t.Parallel()

	h := history.New()
	h.Mark("HOT", thursday)

	n := &recordingNotifier{}
	r := newTestRouter(n, h, nil)
	r.Begin("QC")

	if got := r.Route(context.Background(), rec("HOT", 0)); got != DecisionHot {
		t.Fatalf("decision = %s, want hot", got)
	}
}

func TestHistoryMarkedOnlyAfterSuccess(t *testing.T) {
	t.Parallel()

	h := history.New()
	failing := &recordingNotifier{err: errors.New("smtp down")}
	r := newTestRouter(failing, h, nil)
	r.Begin("QC")
	r.Route(context.Background(), rec("FAIL", 0))

	if _, ok := h.Last("FAIL"); ok {
		t.Fatalf("failed send must not be recorded in history")
	}

	ok := &recordingNotifier{}
	r = newTestRouter(ok, h, nil)
	r.Begin("QC")
	r.Route(context.Background(), rec("SENT", 0))

	last, found := h.Last("SENT")
	if !found {
		t.Fatalf("successful send not recorded")
	}
	if last.Format(history.DateLayout) != "2026-10-15" {
		t.Fatalf("recorded date = %s", last.Format(history.DateLayout))
	}
}

func TestEndJoinsSendErrors(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{err: errors.New("boom")}
	r := newTestRouter(n, nil, func(o *Options) { o.Manual = true })
	r.Begin("QC")

	r.Route(context.Background(), rec("H1", 0))
	r.Route(context.Background(), rec("H2", 1))
	r.Route(context.Background(), rec("B1", 7))

	err := r.End(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := strings.Count(err.Error(), "boom"); got != 3 {
		t.Fatalf("joined %d errors, want 3: %v", got, err)
	}
	if err := r.End(context.Background()); err != nil {
		t.Fatalf("errors must reset after End, got %v", err)
	}
}

func TestBeginDropsLeftoverBatch(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	n := &recordingNotifier{}
	r := newTestRouter(n, nil, func(o *Options) { o.Logger = zap.New(core) })

	r.Begin("QC")
	r.Route(context.Background(), rec("B1", 2))
	r.Begin("R&D")

	if r.Pending() != 0 {
		t.Fatalf("pending = %d after Begin", r.Pending())
	}
	entries := logs.FilterMessage("dropping unflushed batch").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["keyword"] != "QC" {
		t.Fatalf("warning keyword = %v", entries[0].ContextMap()["keyword"])
	}
}

func TestFlushDueUsesLocation(t *testing.T) {
	t.Parallel()

	bangkok := time.FixedZone("ICT", 7*3600)
	// Sunday 20:00 UTC is already Monday in Bangkok.
	sunday := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

	r := NewRouter(&recordingNotifier{}, nil, Options{
		Policy:   DefaultPolicy(),
		FlushDay: time.Monday,
		Location: bangkok,
		Now:      func() time.Time { return sunday },
	})
	if !r.FlushDue() {
		t.Fatalf("flush should be due on Monday in Bangkok")
	}
}

func TestDecisionString(t *testing.T) {
	t.Parallel()

	want := map[Decision]string{
		DecisionStoreOnly:  "store_only",
		DecisionHot:        "hot",
		DecisionBatched:    "batched",
		DecisionSuppressed: "suppressed",
		DecisionFlushed:    "flushed",
	}
	for d, s := range want {
		if d.String() != s {
			t.Fatalf("%d.String() = %q, want %q", d, d.String(), s)
		}
	}
}
