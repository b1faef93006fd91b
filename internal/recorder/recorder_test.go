package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/salary"
)

type fakeRecorder struct {
	name  string
	err   error
	calls int
	got   []*candidate.Record
}

func (f *fakeRecorder) Name() string { return f.name }

func (f *fakeRecorder) Append(_ context.Context, records []*candidate.Record) error {
	f.calls++
	f.got = append(f.got, records...)
	return f.err
}

func sampleRecords() []*candidate.Record {
	scraped := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	return []*candidate.Record{
		{
			ID:              "R-1",
			Name:            "สมหญิง ใจดี",
			Keyword:         "QC",
			DegreeLabel:     "ป.ตรี",
			DegreeRank:      3,
			Positions:       []string{"QC", "QA"},
			Companies:       []string{"บริษัท เอบีซี จำกัด"},
			Salary:          salary.Range{Min: "18,000", Max: "25,000", MinValue: 18000, MaxValue: 25000, Known: true},
			DaysSinceUpdate: 2,
			Link:            "https://www.jobthai.com/resume/R-1",
			ScrapedAt:       scraped,
		},
		{
			ID:              "R-2",
			Name:            "สมชาย",
			Keyword:         "QC",
			Salary:          salary.Range{Min: salary.Unknown, Max: salary.Unknown},
			DaysSinceUpdate: 40,
			Link:            "https://www.jobthai.com/resume/R-2",
			ScrapedAt:       scraped,
		},
	}
}

func TestMultiAppendsToAll(t *testing.T) {
	t.Parallel()

	ok := &fakeRecorder{name: "ok"}
	bad := &fakeRecorder{name: "bad", err: errors.New("quota exceeded")}
	last := &fakeRecorder{name: "last"}

	m := NewMulti(zap.NewNop(), ok, bad, last)
	err := m.Append(context.Background(), sampleRecords())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: quota exceeded")
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, last.calls)
	assert.Len(t, last.got, 2)
	assert.Equal(t, 3, m.Len())
}

func TestMultiSkipsEmpty(t *testing.T) {
	t.Parallel()

	r := &fakeRecorder{name: "r"}
	require.NoError(t, NewMulti(nil, r).Append(context.Background(), nil))
	assert.Zero(t, r.calls)
}

func TestChunked(t *testing.T) {
	t.Parallel()

	records := make([]*candidate.Record, 5)
	for i := range records {
		records[i] = &candidate.Record{}
	}

	chunks := chunked(records, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 1)
	assert.Empty(t, chunked(nil, 2))
}

func TestValuesMatchColumns(t *testing.T) {
	t.Parallel()

	recs := sampleRecords()
	vals, err := values("run", recs[0])
	require.NoError(t, err)
	require.Len(t, vals, len(columns))
	assert.Equal(t, 18000.0, vals[18])
	assert.Equal(t, "QC, QA", vals[14])

	vals, err = values("run", recs[1])
	require.NoError(t, err)
	assert.Nil(t, vals[18], "unknown salary is stored as NULL")
}
