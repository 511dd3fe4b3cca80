package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// Absolute date forms tried in order against the original-case input so the
// returned token keeps the caller's casing.
var absoluteDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(` + monthNames + `\s+\d{1,2}(?:st|nd|rd|th)?(?:(?:,\s*|\s+)\d{2,4})?)\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `(?:\s+\d{2,4})?)\b`),
	regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\b`),
	regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{2,4})\b`),
}

// Relative sets are checked in this order after the absolute forms.
var relativeOrder = []string{"yesterday", "tomorrow", "last_week"}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)

// Layout table for validating date candidates, tried in order. Slash and dot
// forms are day-first, with month-first as a fallback.
var dateLayouts = []string{
	"January 2 2006",
	"January 2 06",
	"January 2",
	"2 January 2006",
	"2 January 06",
	"2 January",
	"2006-1-2",
	"2/1/2006",
	"2/1/06",
	"1/2/2006",
	"1/2/06",
	"2.1.2006",
	"2.1.06",
}

// Date extracts a date token: the original substring of a validated absolute
// date, or one of the canonical relative tokens "yesterday", "tomorrow",
// "last_week". Candidates that fail the layout-table parse are skipped.
func Date(input string) string {
	for _, p := range absoluteDatePatterns {
		m := p.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if _, err := ParseDate(candidate); err == nil {
			return candidate
		}
	}

	lowered := strings.ToLower(input)
	for _, token := range relativeOrder {
		for _, kw := range tables.RelativeDates[token] {
			if strings.Contains(lowered, kw) {
				return token
			}
		}
	}
	return ""
}

// ParseDate validates a literal date phrase against the layout table.
// Ordinal suffixes, commas, and a leading "of" are normalized away first.
func ParseDate(s string) (time.Time, error) {
	norm := ordinalSuffix.ReplaceAllString(strings.TrimSpace(s), "$1")
	norm = strings.ReplaceAll(norm, ",", " ")

	fields := strings.Fields(norm)
	kept := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(f, "of") {
			continue
		}
		kept = append(kept, f)
	}
	norm = titleCase(strings.Join(kept, " "))

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// IsRelativeToken reports whether token is one of the canonical relative
// date tokens rather than a literal date phrase.
func IsRelativeToken(token string) bool {
	for _, t := range relativeOrder {
		if token == t {
			return true
		}
	}
	return false
}

func matchesRelative(input, token string) bool {
	lowered := strings.ToLower(input)
	for _, kw := range tables.RelativeDates[token] {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// IsYesterday reports a yesterday-synonym anywhere in the input.
func IsYesterday(input string) bool { return matchesRelative(input, "yesterday") }

// IsTomorrow reports a tomorrow-synonym anywhere in the input.
func IsTomorrow(input string) bool { return matchesRelative(input, "tomorrow") }

// IsLastWeek reports a last/previous-week synonym anywhere in the input.
func IsLastWeek(input string) bool { return matchesRelative(input, "last_week") }
