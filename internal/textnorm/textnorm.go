// Package textnorm cleans text scraped from resume pages before it is parsed.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

var (
	nonDigits = regexp.MustCompile(`\D`)
	spaces    = regexp.MustCompile(`[ \t\x{00a0}\x{200b}]+`)

	printer = message.NewPrinter(language.English)
)

// Clean normalizes s to NFC and folds all whitespace, including line breaks,
// into single spaces.
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\u200b", "")
	return strings.Join(strings.Fields(s), " ")
}

// CleanText is Clean for multi-line blocks: line breaks survive, every line is
// trimmed and inner runs of blanks are collapsed.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseNumber parses "15,000" or "15000.50". It reports false instead of
// returning an error.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatThousands renders n with comma grouping, e.g. 15000 -> "15,000".
func FormatThousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// CleanEmail removes the "Click" caption the portal renders next to addresses.
func CleanEmail(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "Click", ""))
}

// Truncate shortens s to limit runes, appending an ellipsis when truncated.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
