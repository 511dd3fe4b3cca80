// Package extract resolves cities, date tokens, and stock queries from raw
// text through layered, pattern-ordered heuristics. All keyword and pattern
// precedence lives in rules.yaml; behavior is first-match-wins.
package extract

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesRaw []byte

// Company maps a lower-cased company name to its ticker symbol. Entries are
// matched in table order.
type Company struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
}

// Tables is the decoded rule set.
type Tables struct {
	WeatherKeywords []string            `yaml:"weather_keywords"`
	StockKeywords   []string            `yaml:"stock_keywords"`
	Companies       []Company           `yaml:"companies"`
	Cities          []string            `yaml:"cities"`
	CanonicalCities map[string]string   `yaml:"canonical_cities"`
	DayTails        []string            `yaml:"day_tails"`
	RelativeDates   map[string][]string `yaml:"relative_dates"`
	StockFillers    []string            `yaml:"stock_fillers"`
}

var tables = mustLoadTables()

// Rules exposes the decoded tables, mainly for the router.
func Rules() Tables {
	return tables
}

// CompanySymbol returns the ticker symbol for a known company name, or ""
// when the name is not in the table. Matching is case-insensitive.
func (t Tables) CompanySymbol(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.Companies {
		if c.Name == lowered {
			return c.Symbol
		}
	}
	return ""
}

// CompanyFor returns the display name for a known ticker symbol, or the
// symbol itself when it is not in the table.
func CompanyFor(symbol string) string {
	for _, c := range tables.Companies {
		if c.Symbol == symbol {
			return titleCase(c.Name)
		}
	}
	return symbol
}

func mustLoadTables() Tables {
	var t Tables
	if err := yaml.Unmarshal(rulesRaw, &t); err != nil {
		panic(fmt.Sprintf("extract: decode rules.yaml: %v", err))
	}
	if len(t.WeatherKeywords) == 0 || len(t.StockKeywords) == 0 || len(t.Companies) == 0 {
		panic("extract: rules.yaml is missing required tables")
	}
	return t
}
