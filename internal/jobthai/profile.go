package jobthai

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// Resume page selectors. Paths are positional because the page has almost no
// ids or classes below the main table.
const (
	mainTableSel = "#mainTableTwoColumn"
	leftColumn   = mainTableSel + " > tbody > tr > td:nth-of-type(1) > table > tbody"
	rightColumn  = mainTableSel + " > tbody > tr > td:nth-of-type(2) > table > tbody"

	educationTablesSel = leftColumn + " > tr:nth-of-type(7) > td:nth-of-type(2) > table"
	positionsSel       = leftColumn + " > tr:nth-of-type(5) > td:nth-of-type(2) > table > tbody > tr:nth-of-type(3) > td > span"
	workTablesSel      = rightColumn + " > tr:nth-of-type(2) > td:nth-of-type(2) > table"

	idSel        = "#ResumeViewDiv [align='left'] span.white"
	updatedSel   = "#ResumeViewDiv > table > tbody > tr:nth-of-type(2) > td:nth-of-type(3) > span:nth-of-type(2)"
	firstNameSel = mainTableSel + " td > span.head1"
	lastNameSel  = "span.black:nth-of-type(3)"
	phoneSel     = mainTableSel + " div:nth-of-type(6) span.black"
	emailSel     = mainTableSel + " a"
	addressSel   = mainTableSel + " div:nth-of-type(1) span.head1"
	provinceSel  = mainTableSel + " table [width][align='left'] div span.headNormal"

	// PhotoSel is the candidate photo element.
	PhotoSel = "#DefaultPictureResume2Column"

	salaryLabel    = "เงินเดือนที่ต้องการ"
	degreeLabel    = "ระดับการศึกษา"
	facultyLabel   = "คณะ"
	majorLabel     = "สาขา"
	noResultsTH    = "ไม่พบข้อมูล"
	noResultsEN    = "No data found"
	resumeLinkPart = "ResumeDetail"
)

// ProfilePage is a parsed resume page. It implements candidate.Page.
type ProfilePage struct {
	doc *goquery.Document
}

var _ candidate.Page = (*ProfilePage)(nil)

// ParseProfile parses the HTML of a resume page.
func ParseProfile(html string) (*ProfilePage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing resume page: %w", err)
	}
	return &ProfilePage{doc: doc}, nil
}

func (p *ProfilePage) Fields() candidate.RawProfileFields {
	fields := candidate.RawProfileFields{
		candidate.FieldID:        firstText(p.doc.Selection, idSel),
		candidate.FieldFirstName: firstText(p.doc.Selection, firstNameSel),
		candidate.FieldLastName:  firstText(p.doc.Selection, lastNameSel),
		candidate.FieldPhone:     firstText(p.doc.Selection, phoneSel),
		candidate.FieldEmail:     firstText(p.doc.Selection, emailSel),
		candidate.FieldAddress:   firstText(p.doc.Selection, addressSel),
		candidate.FieldProvince:  firstText(p.doc.Selection, provinceSel),
		candidate.FieldUpdated:   firstText(p.doc.Selection, updatedSel),
		candidate.FieldSalary:    labelledValue(p.doc.Selection, salaryLabel),
	}

	spans := p.doc.Find(positionsSel)
	for i, key := range []string{candidate.FieldPosition1, candidate.FieldPosition2, candidate.FieldPosition3} {
		// Titles are every second span: label, value, label, value...
		fields[key] = strings.TrimSpace(spans.Eq(2*i + 1).Text())
	}
	return fields
}

// FullText returns the main table as rendered text, one line per block.
func (p *ProfilePage) FullText() string {
	return RenderText(p.doc.Find(mainTableSel).First())
}

// Education returns one entry per education table in page order.
func (p *ProfilePage) Education() []candidate.EducationEntry {
	var entries []candidate.EducationEntry
	p.doc.Find(educationTablesSel).Each(func(_ int, table *goquery.Selection) {
		institution := firstText(table, "tbody > tr:nth-of-type(2) > td > div")
		if institution == "" {
			institution = firstText(table, "tbody > tr:nth-of-type(1) > td > div")
		}

		degree := labelledValue(table, degreeLabel)
		if degree == "" {
			degree = firstText(table, "tbody > tr:nth-of-type(1) > td")
		}

		entries = append(entries, candidate.EducationEntry{
			Institution: institution,
			Faculty:     labelledValue(table, facultyLabel),
			Major:       labelledValue(table, majorLabel),
			DegreeLabel: degree,
		})
	})
	return entries
}

// Company returns the structured company of the n-th work table.
func (p *ProfilePage) Company(n int) (string, bool) {
	tables := p.doc.Find(workTablesSel)
	if n < 1 || n > tables.Length() {
		return "", false
	}
	table := tables.Eq(n - 1)

	name := firstText(table, "tbody > tr:nth-of-type(3) > td > div > span")
	if name == "" {
		name = firstText(table, "tbody > tr:nth-of-type(3) > td")
	}
	return name, true
}

// HasPhoto reports whether the page shows a candidate photo.
func (p *ProfilePage) HasPhoto() bool {
	return p.doc.Find(PhotoSel).Length() > 0
}

func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// labelledValue returns the text of the cell following the first innermost
// cell whose text contains label.
func labelledValue(s *goquery.Selection, label string) string {
	contains := func(_ int, td *goquery.Selection) bool {
		return strings.Contains(td.Text(), label)
	}

	var value string
	s.Find("td").FilterFunction(contains).EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Find("td").FilterFunction(contains).Length() > 0 {
			return true
		}
		next := td.NextAllFiltered("td").First()
		if next.Length() == 0 {
			return true
		}
		value = strings.TrimSpace(next.Text())
		return false
	})
	return value
}

var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "div": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "li": true,
	"p": true, "section": true, "table": true, "tbody": true, "tr": true,
	"ul": true, "ol": true,
}

// RenderText approximates the browser's innerText: block elements break
// lines and table cells are separated by a space.
func RenderText(s *goquery.Selection) string {
	var b strings.Builder
	renderInto(&b, s.Contents())

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func renderInto(b *strings.Builder, nodes *goquery.Selection) {
	nodes.Each(func(_ int, n *goquery.Selection) {
		name := goquery.NodeName(n)
		switch name {
		case "#text":
			b.WriteString(n.Text())
			return
		case "script", "style", "#comment":
			return
		}

		block := blockElements[name]
		if block {
			b.WriteString("\n")
		}
		renderInto(b, n.Contents())
		switch {
		case block:
			b.WriteString("\n")
		case name == "td" || name == "th":
			b.WriteString(" ")
		}
	})
}
