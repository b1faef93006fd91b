package candidate

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/fuzzy"
	"github.com/spigell/jobthai-scout/internal/qualify"
	"github.com/spigell/jobthai-scout/internal/salary"
	"github.com/spigell/jobthai-scout/internal/textnorm"
	"github.com/spigell/jobthai-scout/internal/thaidate"
	"github.com/spigell/jobthai-scout/internal/workhistory"
)

var (
	ageRe    = regexp.MustCompile(`อายุ\s*:?\s*(\d+)`)
	genderRe = regexp.MustCompile(`เพศ\s*:?\s*(ชาย|หญิง|Male|Female)`)
)

// Category groups position titles under a name, e.g. "QA" -> ["QC", "QA"].
type Category struct {
	Name   string   `mapstructure:"name" yaml:"name"`
	Titles []string `mapstructure:"titles" yaml:"titles"`
}

// Watchlist is a named list of companies looked for in work histories.
type Watchlist struct {
	Name      string   `mapstructure:"name" yaml:"name"`
	Companies []string `mapstructure:"companies" yaml:"companies"`
}

// Builder turns a resume page into a Record when its education qualifies.
type Builder struct {
	Dates      *thaidate.Converter
	Qualifier  *qualify.Qualifier
	Targets    qualify.Targets
	Categories []Category
	Watchlists []Watchlist
	// Matcher scores work-history companies against watchlists.
	Matcher fuzzy.Matcher
	Logger  *zap.Logger
}

// Build evaluates page. The record is nil when the candidate does not qualify.
func (b *Builder) Build(page Page, link, keyword string) (*Record, qualify.Verdict) {
	verdict := b.Qualifier.Qualify(page.Education(), b.Targets)
	if !verdict.Qualifies {
		return nil, verdict
	}

	fields := page.Fields()
	profile, err := fields.Decode()
	if err != nil {
		b.logger().Warn("profile decode failed", zap.String("link", link), zap.Error(err))
	}

	text := page.FullText()
	jobs := workhistory.Segment(text, page)
	updated := profile.Updated

	rec := &Record{
		ID:                 profile.ID,
		Name:               strings.TrimSpace(profile.FirstName + " " + profile.LastName),
		Age:                firstGroup(ageRe, text),
		Gender:             firstGroup(genderRe, text),
		Phone:              textnorm.DigitsOnly(profile.Phone),
		Email:              textnorm.CleanEmail(profile.Email),
		Address:            textnorm.Clean(profile.Address),
		Province:           textnorm.Clean(profile.Province),
		DegreeLabel:        verdict.HighestDegreeLabel,
		DegreeRank:         verdict.HighestDegreeRank,
		MatchedInstitution: verdict.MatchedInstitution,
		MatchedFaculty:     verdict.MatchedFaculty,
		MatchedMajor:       verdict.MatchedMajor,
		Positions:          profile.Positions(),
		Salary:             salary.Parse(profile.Salary),
		Companies:          workhistory.Companies(jobs),
		Tenures:            b.tenures(jobs),
		LastUpdate:         b.Dates.Describe(updated),
		DaysSinceUpdate:    b.Dates.DaysSince(updated),
		Link:               link,
		Keyword:            keyword,
		ScrapedAt:          b.Dates.Now().In(b.Dates.Location).Truncate(time.Second),
	}
	rec.Categories = Categorize(rec.Positions, b.Categories)
	rec.WatchlistHits = b.watchlistHits(rec.Companies)

	return rec, verdict
}

// Categorize returns the names of categories with a title contained in any
// position, case-insensitively, in category order.
func Categorize(positions []string, categories []Category) []string {
	var names []string
	for _, c := range categories {
		if matchesAny(positions, c.Titles) {
			names = append(names, c.Name)
		}
	}
	return names
}

func matchesAny(positions, titles []string) bool {
	for _, pos := range positions {
		lower := strings.ToLower(pos)
		for _, title := range titles {
			if title != "" && strings.Contains(lower, strings.ToLower(title)) {
				return true
			}
		}
	}
	return false
}

func (b *Builder) watchlistHits(companies []string) map[string][]string {
	if len(b.Watchlists) == 0 || len(companies) == 0 {
		return nil
	}

	threshold := b.Matcher.Threshold
	if threshold <= 0 {
		threshold = fuzzy.DefaultThreshold
	}

	hits := make(map[string][]string)
	for _, w := range b.Watchlists {
		for _, company := range companies {
			target, score := fuzzy.Best(company, w.Companies)
			if target != "" && score >= threshold {
				hits[w.Name] = append(hits[w.Name], company)
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}
	return hits
}

// tenures describes the period of each job, or thaidate.NoDate when the job
// has no readable period.
func (b *Builder) tenures(jobs []workhistory.Entry) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, b.Dates.DescribeRange(j.Period))
	}
	return out
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
