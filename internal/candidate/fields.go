package candidate

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/jobthai-scout/internal/qualify"
	"github.com/spigell/jobthai-scout/internal/workhistory"
)

// Field names produced by the page fetcher.
const (
	FieldID        = "id"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldAddress   = "address"
	FieldProvince  = "province"
	FieldUpdated   = "updated"
	FieldPosition1 = "position_1"
	FieldPosition2 = "position_2"
	FieldPosition3 = "position_3"
	FieldSalary    = "salary"
)

// RawProfileFields maps a field name to the text extracted for it. Missing
// fields read as "".
type RawProfileFields map[string]string

// Get returns the trimmed value of name.
func (f RawProfileFields) Get(name string) string {
	return strings.TrimSpace(f[name])
}

// Profile is the typed view of RawProfileFields.
type Profile struct {
	ID        string `mapstructure:"id"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Phone     string `mapstructure:"phone"`
	Email     string `mapstructure:"email"`
	Address   string `mapstructure:"address"`
	Province  string `mapstructure:"province"`
	Updated   string `mapstructure:"updated"`
	Position1 string `mapstructure:"position_1"`
	Position2 string `mapstructure:"position_2"`
	Position3 string `mapstructure:"position_3"`
	Salary    string `mapstructure:"salary"`
}

// Decode maps the raw fields onto a Profile, ignoring unknown keys. Values
// are trimmed.
func (f RawProfileFields) Decode() (Profile, error) {
	trimmed := make(map[string]string, len(f))
	for k, v := range f {
		trimmed[k] = strings.TrimSpace(v)
	}

	var p Profile
	if err := mapstructure.Decode(trimmed, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Positions returns the non-empty desired positions in page order.
func (p Profile) Positions() []string {
	positions := make([]string, 0, 3)
	for _, pos := range []string{p.Position1, p.Position2, p.Position3} {
		if pos != "" {
			positions = append(positions, pos)
		}
	}
	return positions
}

// EducationEntry is one education block of a resume.
type EducationEntry = qualify.Entry

// Page is everything the builder reads from one resume page.
type Page interface {
	Fields() RawProfileFields
	FullText() string
	Education() []EducationEntry
	workhistory.CompanyLookup
}
