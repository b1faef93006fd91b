// Package thaidate converts Buddhist-era dates printed by the portal and
// describes how long ago they were.
package thaidate

import (
	"strconv"
	"strings"
	"time"
)

// BuddhistEraOffset is the difference between Buddhist-era and Gregorian years.
const BuddhistEraOffset = 543

// NoDate is rendered when a date cannot be parsed.
const NoDate = "-"

const (
	today        = "วันนี้"
	underAMonth  = "น้อยกว่า 1เดือน"
	unitYears    = "ปี"
	unitMonths   = "เดือน"
	unitDays     = "วัน"
	absentDays   = 999
	rangeDivider = " - "
)

var months = map[string]time.Month{
	"มกราคม":     time.January,
	"กุมภาพันธ์": time.February,
	"มีนาคม":     time.March,
	"เมษายน":     time.April,
	"พฤษภาคม":    time.May,
	"มิถุนายน":   time.June,
	"กรกฎาคม":    time.July,
	"สิงหาคม":    time.August,
	"กันยายน":    time.September,
	"ตุลาคม":     time.October,
	"พฤศจิกายน":  time.November,
	"ธันวาคม":    time.December,
}

var presentWords = []string{"ปัจจุบัน", "present", "now"}

// MonthNames returns the Thai month names in calendar order.
func MonthNames() []string {
	names := make([]string, 12)
	for name, m := range months {
		names[m-1] = name
	}
	return names
}

// Duration is a calendar-aware difference.
type Duration struct {
	Years  int
	Months int
	Days   int
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0
}

// Converter parses dates in a fixed location against an injectable clock.
type Converter struct {
	Location *time.Location
	Now      func() time.Time
}

// New returns a converter bound to loc. A nil loc means Asia/Bangkok, falling
// back to UTC when the zone database is unavailable.
func New(loc *time.Location) *Converter {
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("Asia/Bangkok")
		if err != nil {
			loc = time.UTC
		}
	}
	return &Converter{Location: loc, Now: time.Now}
}

// Today returns the current date at midnight.
func (c *Converter) Today() time.Time {
	return c.dateOf(c.Now())
}

// Parse reads "<day> <Thai month> <Buddhist year>".
func (c *Converter) Parse(text string) (time.Time, bool) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := months[parts[1]]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}

	return c.date(year-BuddhistEraOffset, month, day)
}

// Describe renders the time elapsed since the date in text, e.g.
// "1ปี 3เดือน 2วัน". A date equal to today yields "วันนี้".
func (c *Converter) Describe(text string) string {
	from, ok := c.Parse(text)
	if !ok {
		return NoDate
	}

	d := Elapsed(from, c.Today())
	if d.IsZero() {
		return today
	}
	return format(d, true)
}

// DescribeRange renders "<month> <year> - <month> <year|ปัจจุบัน>" as years
// and months.
func (c *Converter) DescribeRange(text string) string {
	start, end, ok := strings.Cut(text, rangeDivider)
	if !ok {
		return NoDate
	}

	from, ok := c.parseMonthYear(start)
	if !ok {
		return NoDate
	}

	to, ok := c.parseMonthYear(end)
	if !ok {
		if !isPresent(end) {
			return NoDate
		}
		to = c.Today()
	}

	d := Elapsed(from, to)
	if d.Years == 0 && d.Months == 0 {
		return underAMonth
	}
	return format(d, false)
}

// DaysSince returns whole days between the date in text and today, or 999
// when the date is absent or unparsable.
func (c *Converter) DaysSince(text string) int {
	from, ok := c.Parse(text)
	if !ok {
		return absentDays
	}
	return int(c.Today().Sub(from).Hours() / 24)
}

func (c *Converter) parseMonthYear(text string) (time.Time, bool) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return time.Time{}, false
	}
	month, ok := months[parts[0]]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	return c.date(year-BuddhistEraOffset, month, 1)
}

func (c *Converter) date(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, c.Location)
	// time.Date normalizes overflow such as 31 February.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func (c *Converter) dateOf(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location)
}

// Elapsed computes the difference from -> to in years, months and days.
// Months are counted first and the remainder is expressed in days; a start
// day missing from the target month is clamped to the month's last day.
// A from after to yields a zero Duration.
func Elapsed(from, to time.Time) Duration {
	if !from.Before(to) {
		return Duration{}
	}

	total := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	anchor := addMonths(from, total)
	for to.Before(anchor) {
		total--
		anchor = addMonths(from, total)
	}

	days := int(to.Sub(anchor).Hours() / 24)
	return Duration{Years: total / 12, Months: total % 12, Days: days}
}

func addMonths(t time.Time, n int) time.Time {
	y, m := t.Year(), int(t.Month())-1+n
	y += m / 12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)

	day := t.Day()
	if last := daysIn(y, month, t.Location()); day > last {
		day = last
	}
	return time.Date(y, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func format(d Duration, withDays bool) string {
	parts := make([]string, 0, 3)
	if d.Years > 0 {
		parts = append(parts, strconv.Itoa(d.Years)+unitYears)
	}
	if d.Months > 0 {
		parts = append(parts, strconv.Itoa(d.Months)+unitMonths)
	}
	if withDays && d.Days > 0 {
		parts = append(parts, strconv.Itoa(d.Days)+unitDays)
	}
	return strings.Join(parts, " ")
}

func isPresent(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, w := range presentWords {
		if strings.HasPrefix(text, w) {
			return true
		}
	}
	return false
}
