// Package degree ranks education levels by the labels printed on resumes.
package degree

import "strings"

// NoLabel is the highest-degree label before any entry is observed.
const NoLabel = "-"

// Level maps a label fragment to an ordinal rank.
type Level struct {
	Key  string `mapstructure:"key" yaml:"key"`
	Rank int    `mapstructure:"rank" yaml:"rank"`
}

// DefaultLevels is the lookup order used when no table is configured. Longer
// and more specific keys come first because "บัณฑิต" is a suffix of the
// doctorate and master labels.
var DefaultLevels = []Level{
	{Key: "ปริญญาเอก", Rank: 3},
	{Key: "ดุษฎีบัณฑิต", Rank: 3},
	{Key: "Doctor", Rank: 3},
	{Key: "Ph.D", Rank: 3},
	{Key: "ปริญญาโท", Rank: 2},
	{Key: "มหาบัณฑิต", Rank: 2},
	{Key: "Master", Rank: 2},
	{Key: "ปริญญาตรี", Rank: 1},
	{Key: "บัณฑิต", Rank: 1},
	{Key: "Bachelor", Rank: 1},
}

// Ranker looks labels up in an ordered table.
type Ranker struct {
	levels []Level
}

// NewRanker copies levels; an empty table means DefaultLevels.
func NewRanker(levels []Level) *Ranker {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	return &Ranker{levels: append([]Level(nil), levels...)}
}

// Rank returns the rank of the first key contained in label, case-sensitive,
// or 0 when nothing matches.
func (r *Ranker) Rank(label string) int {
	for _, level := range r.levels {
		if level.Key != "" && strings.Contains(label, level.Key) {
			return level.Rank
		}
	}
	return 0
}

// Tracker keeps the highest-ranked label seen so far.
type Tracker struct {
	ranker *Ranker
	label  string
	rank   int
}

// Track starts a tracker with no observations.
func (r *Ranker) Track() *Tracker {
	return &Tracker{ranker: r, label: NoLabel, rank: -1}
}

// Observe ranks label and keeps it when it beats the current maximum. Equal
// ranks keep the label seen first.
func (t *Tracker) Observe(label string) int {
	rank := t.ranker.Rank(label)
	if rank > t.rank {
		t.rank = rank
		t.label = label
	}
	return rank
}

// Label returns the best label, or "-" when nothing was observed.
func (t *Tracker) Label() string {
	return t.label
}

// Rank returns the best rank, or 0 when nothing was observed.
func (t *Tracker) Rank() int {
	if t.rank < 0 {
		return 0
	}
	return t.rank
}
