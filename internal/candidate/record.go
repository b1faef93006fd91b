package candidate

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/jobthai-scout/internal/salary"
	"github.com/spigell/jobthai-scout/internal/textnorm"
	"github.com/spigell/jobthai-scout/internal/thaidate"
)

// Record is a qualified candidate ready for notification and storage.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      string `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Province string `json:"province,omitempty"`

	DegreeLabel        string `json:"degree"`
	DegreeRank         int    `json:"degree_rank"`
	MatchedInstitution string `json:"institution"`
	MatchedFaculty     string `json:"faculty"`
	MatchedMajor       string `json:"major"`

	Positions  []string     `json:"positions,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Salary     salary.Range `json:"salary"`

	Companies []string `json:"companies,omitempty"`
	// Tenures holds how long each job of Companies lasted, e.g. "1ปี 6เดือน".
	Tenures       []string            `json:"tenures,omitempty"`
	WatchlistHits map[string][]string `json:"watchlist_hits,omitempty"`

	LastUpdate      string `json:"last_update"`
	DaysSinceUpdate int    `json:"days_since_update"`

	Link      string    `json:"link"`
	ImagePath string    `json:"image_path,omitempty"`
	Keyword   string    `json:"keyword"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// PositionsText joins the desired positions with ", ".
func (r *Record) PositionsText() string {
	return strings.Join(r.Positions, ", ")
}

// CompaniesText joins the work history with ", ", or "-" when it is empty.
func (r *Record) CompaniesText() string {
	if len(r.Companies) == 0 {
		return "-"
	}
	return strings.Join(r.Companies, ", ")
}

// WorkHistoryText is CompaniesText with the tenure of each job in brackets
// where it is known.
func (r *Record) WorkHistoryText() string {
	if len(r.Tenures) != len(r.Companies) {
		return r.CompaniesText()
	}

	parts := make([]string, 0, len(r.Companies))
	for i, c := range r.Companies {
		if t := r.Tenures[i]; t != "" && t != thaidate.NoDate {
			c += " (" + t + ")"
		}
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// WatchlistText renders hits as "list: a, b; other: c" in list name order.
func (r *Record) WatchlistText() string {
	names := make([]string, 0, len(r.WatchlistHits))
	for name := range r.WatchlistHits {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(r.WatchlistHits[name], ", "))
	}
	return strings.Join(parts, "; ")
}

// Headers is the column layout of Row.
var Headers = []string{
	"Link", "Keyword", "รหัสใบสมัคร", "ชื่อ-นามสกุล", "อายุ", "เพศ",
	"เบอร์โทร", "Email", "ที่อยู่", "ระดับการศึกษา", "มหาลัย", "คณะ", "สาขา",
	"ตำแหน่งที่สมัคร", "เงินเดือนที่ขอ (Raw)", "เงินเดือนต่ำสุด", "เงินเดือนสูงสุด",
	"เคยทำบริษัทคู่แข่ง", "อัพเดทล่าสุด",
	"หมวดตำแหน่ง", "บริษัทที่ติดตาม", "จำนวนวันตั้งแต่อัพเดท", "ที่อยู่เต็ม",
}

// Row flattens the record in Headers order. The "ที่อยู่" column holds the
// province; the full address is last.
func (r *Record) Row() []string {
	return []string{
		r.Link,
		r.Keyword,
		r.ID,
		r.Name,
		r.Age,
		r.Gender,
		textnorm.DigitsOnly(r.Phone),
		textnorm.CleanEmail(r.Email),
		r.Province,
		r.DegreeLabel,
		r.MatchedInstitution,
		r.MatchedFaculty,
		r.MatchedMajor,
		r.PositionsText(),
		r.Salary.Raw,
		r.Salary.Min,
		r.Salary.Max,
		strings.Join(r.Companies, ", "),
		r.LastUpdate,
		strings.Join(r.Categories, ", "),
		r.WatchlistText(),
		strconv.Itoa(r.DaysSinceUpdate),
		r.Address,
	}
}

// Records is an ordered list of candidates.
type Records struct {
	Items []*Record
}

// Len returns the number of records.
func (rs *Records) Len() int {
	return len(rs.Items)
}

// Append adds records preserving order.
func (rs *Records) Append(r ...*Record) {
	rs.Items = append(rs.Items, r...)
}

// IDs returns candidate ids in order.
func (rs *Records) IDs() []string {
	ids := make([]string, 0, len(rs.Items))
	for _, r := range rs.Items {
		ids = append(ids, r.ID)
	}
	return ids
}

// DumpToTmpFile writes the records as indented JSON into a temporary file and
// returns its name.
func (rs *Records) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByKeyword groups a short summary of each record by search keyword.
func (rs *Records) ReportByKeyword() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, r := range rs.Items {
		report[r.Keyword] = append(report[r.Keyword], map[string]string{
			"id":                r.ID,
			"name":              r.Name,
			"degree":            r.DegreeLabel,
			"institution":       r.MatchedInstitution,
			"salary":            r.Salary.Min + "-" + r.Salary.Max,
			"companies":         r.CompaniesText(),
			"days_since_update": strconv.Itoa(r.DaysSinceUpdate),
			"link":              r.Link,
		})
	}
	return report
}
