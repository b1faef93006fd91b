package recorder

import (
	"encoding/json"
	"strings"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// insertChunk bounds the rows per INSERT statement to stay under the
// bind-parameter limits of both databases.
const insertChunk = 200

// columns of the SQL tables, in insert order.
var columns = []string{
	"run_id",
	"candidate_id",
	"keyword",
	"name",
	"age",
	"gender",
	"phone",
	"email",
	"province",
	"degree",
	"degree_rank",
	"institution",
	"faculty",
	"major",
	"positions",
	"categories",
	"companies",
	"watchlists",
	"salary_min",
	"salary_max",
	"last_update",
	"days_since_update",
	"link",
	"image_path",
	"scraped_at",
	"payload",
}

func values(runID any, r *candidate.Record) ([]any, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	return []any{
		runID,
		r.ID,
		r.Keyword,
		r.Name,
		r.Age,
		r.Gender,
		r.Phone,
		r.Email,
		r.Province,
		r.DegreeLabel,
		r.DegreeRank,
		r.MatchedInstitution,
		r.MatchedFaculty,
		r.MatchedMajor,
		r.PositionsText(),
		strings.Join(r.Categories, ", "),
		strings.Join(r.Companies, ", "),
		r.WatchlistText(),
		nullableFloat(r.Salary.Known, r.Salary.MinValue),
		nullableFloat(r.Salary.Known, r.Salary.MaxValue),
		r.LastUpdate,
		r.DaysSinceUpdate,
		r.Link,
		r.ImagePath,
		r.ScrapedAt,
		string(payload),
	}, nil
}

func nullableFloat(ok bool, v float64) any {
	if !ok {
		return nil
	}
	return v
}

func chunked(records []*candidate.Record, size int) [][]*candidate.Record {
	var out [][]*candidate.Record
	for len(records) > size {
		out = append(out, records[:size])
		records = records[size:]
	}
	if len(records) > 0 {
		out = append(out, records)
	}
	return out
}
