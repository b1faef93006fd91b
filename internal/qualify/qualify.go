// Package qualify decides whether a candidate's education matches the target
// institution, faculty and major lists.
package qualify

import (
	"github.com/spigell/jobthai-scout/internal/degree"
	"github.com/spigell/jobthai-scout/internal/fuzzy"
)

// Entry is one education block of a resume.
type Entry struct {
	Institution string
	Faculty     string
	Major       string
	DegreeLabel string
}

// Targets are the lists an entry is matched against. An empty list places no
// constraint on its field.
type Targets struct {
	Institutions []string `mapstructure:"institutions" yaml:"institutions"`
	Faculties    []string `mapstructure:"faculties" yaml:"faculties"`
	Majors       []string `mapstructure:"majors" yaml:"majors"`
}

// Verdict is the outcome of Qualify.
type Verdict struct {
	Qualifies          bool
	MatchedInstitution string
	MatchedFaculty     string
	MatchedMajor       string
	// MatchedIndex is the position of the qualifying entry, -1 when none.
	MatchedIndex       int
	HighestDegreeLabel string
	HighestDegreeRank  int
}

// Qualifier combines fuzzy matching with degree ranking.
type Qualifier struct {
	matcher fuzzy.Matcher
	ranker  *degree.Ranker
}

// New builds a qualifier. A nil ranker uses the default degree table.
func New(matcher fuzzy.Matcher, ranker *degree.Ranker) *Qualifier {
	if ranker == nil {
		ranker = degree.NewRanker(nil)
	}
	return &Qualifier{matcher: matcher, ranker: ranker}
}

// Qualify walks entries in order. The first entry whose institution matches and
// whose faculty or major matches decides the matched fields. Degree ranking
// runs over every entry independently of the match.
func (q *Qualifier) Qualify(entries []Entry, targets Targets) Verdict {
	verdict := Verdict{MatchedIndex: -1}
	tracker := q.ranker.Track()

	for i, entry := range entries {
		tracker.Observe(entry.DegreeLabel)

		if verdict.Qualifies {
			continue
		}
		if q.passes(entry, targets) {
			verdict.Qualifies = true
			verdict.MatchedIndex = i
			verdict.MatchedInstitution = entry.Institution
			verdict.MatchedFaculty = entry.Faculty
			verdict.MatchedMajor = entry.Major
		}
	}

	verdict.HighestDegreeLabel = tracker.Label()
	verdict.HighestDegreeRank = tracker.Rank()
	return verdict
}

func (q *Qualifier) passes(entry Entry, targets Targets) bool {
	if !q.matcher.Matches(entry.Institution, targets.Institutions) {
		return false
	}
	return q.matcher.Matches(entry.Faculty, targets.Faculties) ||
		q.matcher.Matches(entry.Major, targets.Majors)
}
