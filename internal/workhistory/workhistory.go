// Package workhistory splits the work-history section of a resume into jobs
// and names the company of each one.
package workhistory

import (
	"regexp"
	"strings"

	"github.com/spigell/jobthai-scout/internal/textnorm"
	"github.com/spigell/jobthai-scout/internal/thaidate"
)

const (
	// SectionStart opens the work-history section in the page text.
	SectionStart = "ประวัติการทำงาน/ฝึกงาน"
	// SectionEnd is the header of the section that follows it.
	SectionEnd = "ความสามารถ"

	// maxProbes bounds structured lookups in case a lookup never reports the
	// end of the list.
	maxProbes = 100
)

var (
	jobStart = regexp.MustCompile(`(` + strings.Join(thaidate.MonthNames(), "|") + `)\s+\d{4}\s+-\s+`)
	company  = regexp.MustCompile(`(?mi)^.*(บริษัท|Ltd|Inc|Group|Organization|หจก|Limited).*$`)
)

// CompanyLookup exposes the structured company field of the n-th job block
// (1-based). present is false past the last block.
type CompanyLookup interface {
	Company(n int) (name string, present bool)
}

// Entry is one job of the work history.
type Entry struct {
	// Index is the 1-based position of the job.
	Index   int
	Company string
	// Block is the text segment aligned with the job by position, empty when
	// the text yielded fewer segments than the structured list.
	Block string
	// Period is the "<month> <year> - <end>" line that opened Block.
	Period string
	// FromStructure reports whether Company came from the structured field.
	FromStructure bool
}

// Section returns the text between the work-history header and the next
// section header with every line trimmed, or "" when the header is missing.
func Section(fullText string) string {
	_, rest, ok := strings.Cut(fullText, SectionStart)
	if !ok {
		return ""
	}
	section, _, _ := strings.Cut(rest, SectionEnd)
	return textnorm.CleanText(section)
}

// Blocks splits a work-history section on "<month> <year> - " anchors. Each
// block is the anchor's month name followed by the text up to the next anchor.
// Text before the first anchor is discarded.
func Blocks(section string) []string {
	blocks, _ := split(section)
	return blocks
}

// Periods returns the employment period of every block, e.g.
// "มกราคม 2565 - ปัจจุบัน".
func Periods(section string) []string {
	_, periods := split(section)
	return periods
}

func split(section string) (blocks, periods []string) {
	matches := jobStart.FindAllStringSubmatchIndex(section, -1)
	blocks = make([]string, 0, len(matches))
	periods = make([]string, 0, len(matches))
	for i, m := range matches {
		end := len(section)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		month := section[m[2]:m[3]]
		blocks = append(blocks, month+section[m[1]:end])

		until, _, _ := strings.Cut(section[m[1]:end], "\n")
		periods = append(periods, section[m[0]:m[1]]+strings.TrimSpace(until))
	}
	return blocks, periods
}

// CompanyFromText returns the first line of block that looks like a company
// name, trimmed, or "".
func CompanyFromText(block string) string {
	return strings.TrimSpace(company.FindString(block))
}

// Segment aligns the structured company list with the text blocks by
// position. Probing stops at the first index the lookup reports absent. When
// the structured value is empty the block at the same position is scanned for
// a company line; when there are fewer blocks than structured entries the
// trailing entries keep only the structured value. A nil lookup treats every
// text block as an entry without a structured value.
//
// Entries with an empty company are dropped; repeated companies are kept.
func Segment(fullText string, lookup CompanyLookup) []Entry {
	blocks, periods := split(Section(fullText))

	var entries []Entry
	for i := 0; i < maxProbes; i++ {
		var (
			name    string
			present bool
		)
		if lookup != nil {
			name, present = lookup.Company(i + 1)
		} else {
			present = i < len(blocks)
		}
		if !present {
			break
		}

		entry := Entry{Index: i + 1, Company: strings.TrimSpace(name), FromStructure: strings.TrimSpace(name) != ""}
		if i < len(blocks) {
			entry.Block = blocks[i]
			entry.Period = periods[i]
			if entry.Company == "" {
				entry.Company = CompanyFromText(entry.Block)
			}
		}

		if entry.Company != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Companies lists the company names of entries in order.
func Companies(entries []Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Company)
	}
	return names
}

// Join renders company names as one comma separated string.
func Join(entries []Entry) string {
	return strings.Join(Companies(entries), ", ")
}
