// Package memory holds the short-term conversational context: the last city,
// the last stock query and date, the last intent, and a bounded history of raw
// inputs. One instance is shared per process and mutated in place; it is NOT
// safe for concurrent use. That is a deliberate single-session assumption;
// a multi-request deployment must key contexts by session and serialize access.
package memory

import (
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
)

const historyLimit = 5

var (
	cityAnaphora  = []string{"there", "same place", "that city", "that location"}
	stockAnaphora = []string{"that stock", "same company", "it"}
)

// Memory is the process-wide conversation context.
type Memory struct {
	LastCity       string
	LastStockQuery string
	LastStockDate  string
	LastIntent     contractx.Intent
	History        []string
}

func New() *Memory {
	return &Memory{}
}

// Resolve rewrites anaphoric references in raw using remembered entities,
// appends raw to the history (evicting the oldest past the cap), and returns
// the normalized input. When no rewrite happened the original string is
// returned with its casing intact.
func (m *Memory) Resolve(raw string) string {
	lowered := strings.ToLower(raw)
	processed := lowered

	if m.LastCity != "" && containsAny(processed, cityAnaphora) {
		for _, kw := range cityAnaphora {
			processed = strings.ReplaceAll(processed, kw, m.LastCity)
		}
		log.Debug().Str("city", m.LastCity).Msg("resolver substituted remembered city")
	}

	if m.LastStockQuery != "" && containsAny(processed, stockAnaphora) {
		if hasStandaloneWord(processed, "it") && m.LastIntent == contractx.IntentStock {
			processed = strings.ReplaceAll(processed, "it", m.LastStockQuery)
		} else {
			for _, kw := range stockAnaphora {
				if kw == "it" {
					continue
				}
				processed = strings.ReplaceAll(processed, kw, m.LastStockQuery)
			}
		}
		log.Debug().Str("stock", m.LastStockQuery).Msg("resolver substituted remembered stock query")
	}

	m.History = append(m.History, raw)
	if len(m.History) > historyLimit {
		m.History = m.History[len(m.History)-historyLimit:]
	}

	if processed != lowered {
		return processed
	}
	return raw
}

// RememberWeather records the resolved city. An empty city never clears a
// previously remembered one; the last intent is updated regardless.
func (m *Memory) RememberWeather(city string) {
	if city != "" {
		m.LastCity = city
	}
	m.LastIntent = contractx.IntentWeather
}

// RememberStock records the resolved query and its date token. The date is
// overwritten together with the query, including to empty for a current-price
// query; an empty query leaves both untouched.
func (m *Memory) RememberStock(query, date string) {
	if query != "" {
		m.LastStockQuery = query
		m.LastStockDate = date
	}
	m.LastIntent = contractx.IntentStock
}

// HasStockAnaphora reports whether input references a remembered stock
// ("that stock", "same company", "it" as substring).
func HasStockAnaphora(input string) bool {
	return containsAny(strings.ToLower(input), stockAnaphora)
}

// Snapshot returns a copy for display (the `memory` session command).
func (m *Memory) Snapshot() Memory {
	cp := *m
	cp.History = append([]string(nil), m.History...)
	return cp
}

// Clear resets the context to its initial empty values.
func (m *Memory) Clear() {
	*m = Memory{}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasStandaloneWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}
	return false
}
