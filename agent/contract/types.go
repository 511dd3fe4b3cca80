package contract

// Intent is the classified purpose of a request.
type Intent string

const (
	IntentWeather Intent = "weather"
	IntentStock   Intent = "stock"
	IntentUnknown Intent = "unknown"
)

// RouteScores holds per-request keyword counts. Derived per request, never
// persisted. Compound keywords ("stock price") count on top of their parts;
// that weighting is deliberate and pinned by router tests.
type RouteScores struct {
	Weather int `json:"weather_score"`
	Stock   int `json:"stock_score"`
	Company int `json:"company_score"`
}

// TotalStock is the stock-side score used by the routing decision.
func (s RouteScores) TotalStock() int {
	return s.Stock + s.Company
}

// Entities is the result of one extraction pass over a single request.
type Entities struct {
	City       string
	DateToken  string
	StockQuery string
}

const (
	QuoteStatusSuccess = "success"
	QuoteStatusError   = "error"
)

// QuoteResult is the structured response of the stock provider.
type QuoteResult struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r QuoteResult) IsError() bool {
	return r.Status == QuoteStatusError
}

// ProgressFunc receives user-visible progress events (router analysis, retry
// waits, tool lifecycle). Implementations must not block.
type ProgressFunc func(event, message string)

// NopProgress discards progress events.
func NopProgress(string, string) {}
