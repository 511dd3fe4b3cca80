// Package router classifies a request into weather, stock, or unknown by
// counting keyword-table hits. Overlapping keywords double-count on purpose
// ("stock price" scores stock, price, and stock price); changing that would
// change tie outcomes.
package router

import (
	"strings"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	extractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/extract"
)

var coreStockWords = []string{"stock", "price", "share", "company"}

// Score counts substring occurrences of the weather and stock keyword tables
// plus known company names.
func Score(input string) contractx.RouteScores {
	lowered := strings.ToLower(input)
	rules := extractx.Rules()

	var scores contractx.RouteScores
	for _, kw := range rules.WeatherKeywords {
		if strings.Contains(lowered, kw) {
			scores.Weather++
		}
	}
	for _, kw := range rules.StockKeywords {
		if strings.Contains(lowered, kw) {
			scores.Stock++
		}
	}
	for _, c := range rules.Companies {
		if strings.Contains(lowered, c.Name) {
			scores.Company++
		}
	}
	return scores
}

// Decide applies the ordered decision rules. Equal nonzero scores fall to the
// tie-break; an ambiguous tie routes to unknown rather than a guess.
func Decide(scores contractx.RouteScores, input string) contractx.Intent {
	weather := scores.Weather
	stock := scores.TotalStock()

	switch {
	case weather > stock && weather > 0:
		return contractx.IntentWeather
	case stock > weather && stock > 0:
		return contractx.IntentStock
	case weather > 0 && stock > 0 && weather == stock:
		lowered := strings.ToLower(input)
		hasWeatherWord := strings.Contains(lowered, "weather")
		hasCoreStockWord := false
		for _, w := range coreStockWords {
			if strings.Contains(lowered, w) {
				hasCoreStockWord = true
				break
			}
		}
		if hasWeatherWord && !hasCoreStockWord {
			return contractx.IntentWeather
		}
		if hasCoreStockWord {
			return contractx.IntentStock
		}
		return contractx.IntentUnknown
	default:
		return contractx.IntentUnknown
	}
}
