package shared

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseLocaleNumber parses a price as printed on Turkish bureau pages, where
// '.' groups thousands and ',' separates decimals ("6.107,00", "42,0050").
// Plain dotted decimals ("42.0050") are accepted when no comma is present.
func ParseLocaleNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₺")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return v, nil
}

// ParseFirstPair finds the first match of re in s and parses capture groups
// 1 and 2 as locale numbers. The regex must have at least two capture groups.
func ParseFirstPair(re *regexp.Regexp, s string) (float64, float64, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 3 {
		return 0, 0, false
	}
	a, err := ParseLocaleNumber(m[1])
	if err != nil {
		return 0, 0, false
	}
	b, err := ParseLocaleNumber(m[2])
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
