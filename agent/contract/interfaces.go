package contract

import "context"

// WeatherProvider returns a human-readable report for a city and a day token
// ("today", "tomorrow", "yesterday", "last_week", or a literal date phrase).
// Failure may be signaled in-band: text containing "failed", "error" or
// "unavailable" is treated as a provider failure by the weather node.
type WeatherProvider interface {
	Report(ctx context.Context, city, day string) (string, error)
}

// StockProvider answers a quote query for a company name or ticker symbol.
// dateToken is empty for a current-price query.
type StockProvider interface {
	Quote(ctx context.Context, query, dateToken string) (QuoteResult, error)
}
