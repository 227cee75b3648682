// Package canon turns the heterogeneous codes, numbers and descriptions found
// in budget spreadsheets and reference banks into stable comparison keys.
//
// Every function in this package is pure and total: malformed input yields
// an empty key or a null number, never an error.
package canon

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// occurrenceSuffix marks repeated budget codes, e.g. "87878__occ2".
	occurrenceSuffix = regexp.MustCompile(`(?i)__occ\d+$`)

	// floatArtifact matches integer codes that went through a float cell, e.g. "92793.0".
	floatArtifact = regexp.MustCompile(`^\d+\.0+$`)
)

// Code returns the canonical matching key for a raw item or composition code.
//
// The key is upper-cased, has no whitespace or occurrence suffix, drops a
// trailing ".0" float artifact and strips leading zeros from every purely
// numeric dot-delimited segment ("01.002.0003" becomes "1.2.3"). Segments
// containing letters are kept as they are. Code is idempotent.
func Code(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	for occurrenceSuffix.MatchString(s) {
		s = occurrenceSuffix.ReplaceAllString(s, "")
	}
	s = strings.ToUpper(s)
	if s == "" {
		return ""
	}

	if floatArtifact.MatchString(s) {
		s = s[:strings.IndexByte(s, '.')]
	}

	segments := strings.Split(s, ".")
	for i, seg := range segments {
		segments[i] = trimLeadingZeros(seg)
	}
	return strings.Join(segments, ".")
}

// trimLeadingZeros strips leading zeros from an all-digit segment, keeping
// a single "0" for segments made only of zeros.
func trimLeadingZeros(seg string) string {
	if seg == "" || !isDigits(seg) {
		return seg
	}
	trimmed := strings.TrimLeft(seg, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
