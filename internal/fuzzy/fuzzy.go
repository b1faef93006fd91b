// Package fuzzy implements approximate matching of scraped text against
// configured target names.
package fuzzy

import (
	"math"
	"strings"
)

// DefaultThreshold is the minimum partial ratio treated as a match.
const DefaultThreshold = 85

// Matcher checks free text against a list of targets.
type Matcher struct {
	Threshold int
}

// New returns a matcher with the given threshold; non-positive values fall
// back to DefaultThreshold.
func New(threshold int) Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Matches reports whether text is close enough to any target. No targets
// means no constraint, so the result is true; empty text never matches.
func (m Matcher) Matches(text string, targets []string) bool {
	if len(targets) == 0 {
		return true
	}
	if strings.TrimSpace(text) == "" {
		return false
	}

	_, score := Best(text, targets)
	return score >= m.threshold()
}

func (m Matcher) threshold() int {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Best returns the target with the highest partial ratio against text and its
// score. Ties keep the earlier target.
func Best(text string, targets []string) (string, int) {
	best, bestScore := "", 0
	for _, target := range targets {
		score := PartialRatio(target, text)
		if score > bestScore {
			best, bestScore = target, score
			if score == 100 {
				break
			}
		}
	}
	return best, bestScore
}

// PartialRatio scores 0..100 how well the shorter string aligns with the best
// matching window of the longer one. Comparison is case-insensitive and
// rune based, so it works for Thai text.
func PartialRatio(a, b string) int {
	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	if len(s1) == 0 {
		return 0
	}

	m, n := len(s1), len(s2)
	best := 0.0

	consider := func(window []rune) bool {
		if r := ratio(s1, window); r > best {
			best = r
		}
		return best >= 100
	}

	// Windows that hang over the start of s2.
	for i := 1; i < m; i++ {
		if consider(s2[:i]) {
			return 100
		}
	}
	for i := 0; i+m <= n; i++ {
		if consider(s2[i : i+m]) {
			return 100
		}
	}
	// Windows that hang over the end of s2.
	for i := n - m + 1; i < n; i++ {
		if i < 0 {
			continue
		}
		if consider(s2[i:]) {
			return 100
		}
	}

	return int(math.Round(best))
}

// ratio is the normalized indel similarity 200*LCS/(len(a)+len(b)).
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcs(a, b)) / float64(total)
}

func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
