// Package textnorm holds the token rules that make hand-authored fee
// spreadsheet values comparable. Every comparison in the estimator runs both
// sides through the same function from this package.
package textnorm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Canonical load tokens.
const (
	PartTimeToken = "parttime"
	FullTimeToken = "fulltime"
)

// Clean converts any cell value to its trimmed string form. Absent values
// become "". Numbers keep their shortest decimal form so that a JSON number
// 0.5 and the string "0.5" clean to the same text.
func Clean(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return strings.TrimSpace(t.String())
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// LoadToken lowercases s and drops all whitespace and hyphens, so
// "Part-Time", "part time" and "PartTime" all become "parttime".
func LoadToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsPartTime reports whether s normalizes to the part-time token.
func IsPartTime(s string) bool { return LoadToken(s) == PartTimeToken }

// IsFullTime reports whether s normalizes to the full-time token.
func IsFullTime(s string) bool { return LoadToken(s) == FullTimeToken }

// CohortToken maps en and em dashes to "-", drops whitespace and lowercases,
// so "2024–2025", "2024-2025" and "2024 - 2025" compare equal.
func CohortToken(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '–' || r == '—':
			b.WriteRune('-')
		case unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// ResidenceToken uppercases a residence area name for case-insensitive
// matching.
func ResidenceToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Unique returns the non-empty values of in, first occurrence wins.
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
