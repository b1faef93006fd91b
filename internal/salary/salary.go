// Package salary normalizes expected-salary text such as "15k-20k" into a
// numeric range.
package salary

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/jobthai-scout/internal/textnorm"
)

// Unknown is rendered for bounds that could not be determined.
const Unknown = "-"

// Undisclosed marks salaries the candidate chose to hide.
var Undisclosed = []string{"ปิดข้อมูล"}

var (
	thousands = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k`)
	number    = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Range is a parsed salary expectation.
type Range struct {
	Raw      string
	Min      string
	Max      string
	MinValue float64
	MaxValue float64
	// Known is false when no bound could be parsed.
	Known bool
}

// Parse extracts the first two numbers of raw as min and max. "<n>k" means
// n*1000, a single number is both bounds, and a small first bound next to a
// large second one ("15-20k") is scaled by 1000.
func Parse(raw string) Range {
	r := Range{Raw: raw, Min: Unknown, Max: Unknown}
	if strings.TrimSpace(raw) == "" || undisclosed(raw) {
		return r
	}

	s := strings.ReplaceAll(strings.ToLower(raw), ",", "")
	s = thousands.ReplaceAllStringFunc(s, func(m string) string {
		v, ok := textnorm.ParseNumber(thousands.FindStringSubmatch(m)[1])
		if !ok {
			return m
		}
		return strconv.FormatFloat(v*1000, 'f', -1, 64)
	})

	var nums []float64
	for _, tok := range number.FindAllString(s, -1) {
		if v, ok := textnorm.ParseNumber(tok); ok {
			nums = append(nums, v)
		}
	}
	if len(nums) == 0 {
		return r
	}

	lo, hi := nums[0], nums[0]
	if len(nums) >= 2 {
		hi = nums[1]
	}
	if hi > 1000 && lo > 0 && lo < 1000 {
		lo *= 1000
	}

	r.MinValue, r.MaxValue = lo, hi
	r.Min = textnorm.FormatThousands(int64(lo))
	r.Max = textnorm.FormatThousands(int64(hi))
	r.Known = true
	return r
}

func undisclosed(raw string) bool {
	for _, marker := range Undisclosed {
		if strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}
