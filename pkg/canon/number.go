package canon

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// plainNumber is what remains of a locale-formatted number once separators
// have been normalized. strconv alone would also accept "inf", hex floats
// and underscores, none of which appear in price columns.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseFloat reads a price or coefficient from a spreadsheet-ish value.
//
// Native numeric kinds are accepted directly. Strings may use either comma
// or dot as the decimal separator: when both appear the right-most one is
// the decimal separator and the other groups thousands, a separator that
// repeats is always a thousands separator, and a lone comma is a decimal
// comma. Spaces and non-breaking spaces are ignored and "(123,45)" is
// negative; a sign inside the parentheses is rejected. Anything else, NaN and infinities included, reports false.
func ParseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return finite(*n)
	case json.Number:
		return parseString(n.String())
	case string:
		return parseString(n)
	case *string:
		if n == nil {
			return 0, false
		}
		return parseString(*n)
	default:
		return 0, false
	}
}

// Float is ParseFloat returning a nullable value.
func Float(v any) *float64 {
	f, ok := ParseFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseString(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
			return 0, false
		}
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)

	s = normalizeSeparators(s)
	if !plainNumber.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return finite(f)
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and no thousands separators remain.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndexByte(s, ',') > strings.LastIndexByte(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
