package extract

import (
	"regexp"
	"strings"
)

// Phrase patterns tried in order; first match wins. Go's re2 has no lookahead,
// so the "in X <day-word>" form matches the day word as a trailing
// non-capturing group instead.
var cityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`weather in (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`temperature in (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`forecast for (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`weather at (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`weather for (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`in (\w+(?:\s+\w+)?)\s+(?:today|tomorrow|yesterday|weather|temperature|forecast)`),
	regexp.MustCompile(`(\w+(?:\s+\w+)?)\s+weather`),
}

// Entries in the city allow-list that collide with temporal keywords must not
// direct-match the full input.
var directMatchExclusions = map[string]bool{
	"today":     true,
	"tomorrow":  true,
	"toady":     true,
	"yesterday": true,
}

var cityWordPatterns = buildCityWordPatterns()

func buildCityWordPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(tables.Cities))
	for i, city := range tables.Cities {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(city) + `\b`)
	}
	return patterns
}

// City resolves a city from raw input: ordered phrase patterns with
// temporal-tail stripping first, then a word-boundary scan of the allow-list.
// Returns the title-cased city, or "" when nothing resolves.
func City(input string) string {
	lowered := strings.ToLower(input)

	for _, p := range cityPatterns {
		m := p.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if isDayTail(candidate) {
			continue
		}

		// "weather in paris last week" captures "paris last".
		if strings.Contains(lowered, "last week") && strings.HasSuffix(candidate, " last") {
			candidate = strings.TrimSpace(strings.TrimSuffix(candidate, " last"))
		}
		for _, tail := range tables.DayTails {
			if strings.HasSuffix(candidate, " "+tail) {
				candidate = strings.TrimSpace(strings.TrimSuffix(candidate, " "+tail))
			}
		}

		if canon, ok := canonicalCityIn(candidate); ok {
			return canon
		}
		if knownCity(candidate) {
			return titleCase(candidate)
		}
		if candidate != "" && len(strings.Fields(candidate)) <= 3 {
			return titleCase(candidate)
		}
	}

	for i, city := range tables.Cities {
		if directMatchExclusions[city] {
			continue
		}
		if cityWordPatterns[i].MatchString(lowered) {
			if canon, ok := canonicalCityIn(lowered); ok {
				return canon
			}
			return titleCase(city)
		}
	}

	return ""
}

func canonicalCityIn(s string) (string, bool) {
	for phrase, canon := range tables.CanonicalCities {
		if strings.Contains(s, phrase) {
			return canon, true
		}
	}
	return "", false
}

func knownCity(candidate string) bool {
	for _, city := range tables.Cities {
		if candidate == city {
			return true
		}
	}
	return false
}

func isDayTail(word string) bool {
	for _, tail := range tables.DayTails {
		if word == tail {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] -= 'a' - 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
