// Package rating turns the many ways shops print a review score into an
// integer.
package rating

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Star is the glyph counted by star-style ratings.
	Star = "★"

	Default = 5
	Max     = 5
)

// Space is whitespace as a browser's regexp sees it: \s plus no-break and
// the other Unicode spaces.
const Space = `[\s\p{Zs}\x{FEFF}]`

var (
	fractionPattern   = regexp.MustCompile(`(\d+(\.\d+)?)` + Space + `*/` + Space + `*5`)
	leadingIntPattern = regexp.MustCompile(`^` + Space + `*[+-]?\d+`)
	firstIntPattern   = regexp.MustCompile(`\d+`)
)

// Normalize converts a scraped rating value of any kind. Absent and zero
// values fall back to Default.
func Normalize(v any) int {
	switch r := v.(type) {
	case nil:
		return Default
	case string:
		return Parse(r)
	case int:
		if r == 0 {
			return Default
		}
		return min(r, Max)
	case float64:
		if r == 0 || math.IsNaN(r) {
			return Default
		}
		if r > Max {
			return Max
		}
		return int(r)
	default:
		return Parse(fmt.Sprint(v))
	}
}

// Parse applies the rules in order: star glyph count, "n/5" fraction
// rounded half up, leading integer capped at Max, then Default.
//
// The star count is not capped and the integer path is not floored at 1.
func Parse(s string) int {
	if s == "" {
		return Default
	}

	if strings.Contains(s, Star) {
		return strings.Count(s, Star)
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(math.Floor(f + 0.5))
		}
	}

	if n, ok := leadingInt(s); ok {
		return min(n, Max)
	}

	return Default
}

// leadingInt reads an optionally signed run of digits at the start of s,
// ignoring whatever follows, so "4.5" reads as 4 and "7 stars" as 7.
func leadingInt(s string) (int, bool) {
	m := leadingIntPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	if f > Max {
		return Max, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}

// Extract pulls the rating value out of the text of a rating element: the
// numerator of an "n/5" fraction, else the number of stars, else the first
// integer, else "5".
func Extract(text string) string {
	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if n := strings.Count(text, Star); n > 0 {
		return strconv.Itoa(n)
	}
	if m := firstIntPattern.FindString(text); m != "" {
		return m
	}
	return strconv.Itoa(Default)
}
