package extract

import (
	"regexp"
	"strings"

	memoryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/memory"
)

var stockQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:stock|price|shares?)\s+(?:of|for|in)?\s*([a-z0-9\s.\-]+)`),
	regexp.MustCompile(`([a-z0-9\s.\-]+)\s+(?:stock|price|shares?)`),
}

// 1-5 uppercase letters with an optional exchange suffix, matched against the
// original-case input.
var tickerPattern = regexp.MustCompile(`\b([A-Z]{1,5}(?:\.[A-Z]{1,3})?)\b`)

// Trailing filler stripped from a captured query, each suffix tried once in
// this order.
var trailingStockTerms = []string{
	" stock", " price", " share", " shares", " stock price", " share price",
}

// StockQueryAndDate resolves (query, dateToken) from one input. The date is
// resolved first and its phrase removed from a working copy so date text can
// never be mistaken for a company name. rememberedQuery backs the
// anaphora-triggered memory fallback; pass "" when nothing is remembered.
func StockQueryAndDate(input, rememberedQuery string) (string, string) {
	working := input
	date := Date(input)

	switch {
	case date == "":
	case IsRelativeToken(date):
		working = stripRelativeDate(working, date)
	default:
		working = stripAbsoluteDate(working, date)
	}

	query := StockQuery(strings.TrimSpace(working))
	if query == "" && rememberedQuery != "" && memoryx.HasStockAnaphora(input) {
		query = rememberedQuery
	}
	return query, date
}

// StockQuery extracts a company symbol or free-form query from text that has
// already had any date phrase removed.
func StockQuery(input string) string {
	lowered := strings.ToLower(input)

	for _, c := range tables.Companies {
		if strings.Contains(lowered, c.Name) {
			return c.Symbol
		}
	}

	for _, p := range stockQueryPatterns {
		m := p.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		query := strings.TrimSpace(m[1])
		for _, term := range trailingStockTerms {
			if strings.HasSuffix(query, term) {
				query = strings.TrimSpace(strings.TrimSuffix(query, term))
			}
		}
		if query != "" {
			return titleCase(query)
		}
	}

	if m := tickerPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}

	// Short inputs with filler stripped are taken as the query verbatim.
	if input != "" && len(strings.Fields(input)) <= 4 {
		cleaned := lowered
		for _, phrase := range tables.StockFillers {
			cleaned = strings.ReplaceAll(cleaned, phrase, "")
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned != "" {
			return titleCase(cleaned)
		}
	}

	return ""
}

func stripAbsoluteDate(working, date string) string {
	for _, p := range absoluteDatePatterns {
		m := p.FindStringSubmatch(working)
		if m == nil || !strings.EqualFold(strings.TrimSpace(m[1]), date) {
			continue
		}
		phrase := m[1]
		prefixed := regexp.MustCompile(`(?i)\b(?:on|for|at)\s+` + regexp.QuoteMeta(phrase) + `\b`)
		if loc := prefixed.FindStringIndex(working); loc != nil {
			working = working[:loc[0]] + working[loc[1]:]
		} else {
			working = strings.Replace(working, phrase, "", 1)
		}
		return trimEdges(working)
	}
	return working
}

func stripRelativeDate(working, token string) string {
	lowered := strings.ToLower(working)
	for _, kw := range tables.RelativeDates[token] {
		quoted := regexp.QuoteMeta(kw)
		prefixed := regexp.MustCompile(`\b(?:on|for|as of)\s+` + quoted + `\b`)
		if loc := prefixed.FindStringIndex(lowered); loc != nil {
			return trimEdges(working[:loc[0]] + working[loc[1]:])
		}
		bare := regexp.MustCompile(`\b` + quoted + `\b`)
		if loc := bare.FindStringIndex(lowered); loc != nil {
			return trimEdges(working[:loc[0]] + working[loc[1]:])
		}
	}
	return working
}

func trimEdges(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ","))
}
