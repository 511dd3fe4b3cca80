// Package stocks answers quote queries against the Yahoo Finance search and
// chart APIs: current price, a specific trading day, or a last-week summary.
package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	extractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/extract"
)

const (
	defaultBaseURL   = "https://query2.finance.yahoo.com"
	defaultUserAgent = "Mozilla/5.0"
)

type Config struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true"`
	UserAgent string        `envconfig:"USER_AGENT" split_words:"true"`
	Timeout   time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Quote resolves query to a ticker symbol and answers for dateToken: empty for
// the current price, "yesterday"/"tomorrow"/"last_week", or a literal date
// phrase. Lookup and no-data failures come back in-band as an error-status
// result; transport failures come back as recoverable errors.
func (c *Client) Quote(ctx context.Context, query, dateToken string) (contractx.QuoteResult, error) {
	if strings.TrimSpace(query) == "" {
		return contractx.QuoteResult{}, fmt.Errorf("%w: stock query is required", contractx.ErrValidation)
	}

	symbol, name, err := c.resolveSymbol(ctx, query)
	if err != nil {
		return contractx.QuoteResult{}, err
	}
	if symbol == "" {
		return errorResult("Could not find a ticker symbol for '%s'.", query), nil
	}

	token := strings.ToLower(strings.TrimSpace(dateToken))
	switch token {
	case "":
		return c.currentQuote(ctx, symbol, name)
	case "last_week":
		return c.lastWeekQuote(ctx, symbol, name)
	case "yesterday":
		return c.historicalQuote(ctx, symbol, name, c.today().AddDate(0, 0, -1))
	case "tomorrow":
		return c.historicalQuote(ctx, symbol, name, c.today().AddDate(0, 0, 1))
	default:
		date, perr := extractx.ParseDate(dateToken)
		if perr != nil {
			return errorResult("Could not parse date string: '%s'.", dateToken), nil
		}
		if date.Year() == 0 {
			date = time.Date(c.now().Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		}
		return c.historicalQuote(ctx, symbol, name, date)
	}
}

func (c *Client) today() time.Time {
	now := c.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// resolveSymbol treats dotted or all-uppercase queries as literal tickers and
// looks everything else up through the search endpoint.
func (c *Client) resolveSymbol(ctx context.Context, query string) (symbol, name string, err error) {
	trimmed := strings.TrimSpace(query)
	if strings.Contains(trimmed, ".") || trimmed == strings.ToUpper(trimmed) {
		return strings.ToUpper(trimmed), trimmed, nil
	}

	if canonical := extractx.Rules().CompanySymbol(trimmed); canonical != "" {
		return canonical, extractx.CompanyFor(canonical), nil
	}

	endpoint := c.baseURL + "/v1/finance/search?q=" + url.QueryEscape(trimmed)
	var result struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			ShortName string `json:"shortname"`
			LongName  string `json:"longname"`
		} `json:"quotes"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return "", "", err
	}
	if len(result.Quotes) == 0 {
		return "", "", nil
	}

	best := result.Quotes[0]
	name = best.LongName
	if name == "" {
		name = best.ShortName
	}
	if name == "" {
		name = best.Symbol
	}
	return best.Symbol, name, nil
}

type chartBars struct {
	currency string
	open     []float64
	high     []float64
	low      []float64
	close    []float64
	volume   []int64
}

// complete reports whether every series carries at least n bars. Yahoo may
// truncate individual arrays in a partial payload; indexing must not assume
// the series are aligned.
func (b *chartBars) complete(n int) bool {
	return len(b.open) >= n && len(b.high) >= n && len(b.low) >= n &&
		len(b.close) >= n && len(b.volume) >= n
}

func (c *Client) currentQuote(ctx context.Context, symbol, name string) (contractx.QuoteResult, error) {
	end := c.today().AddDate(0, 0, 1)
	bars, err := c.chart(ctx, symbol, end.AddDate(0, 0, -7), end)
	if err != nil {
		return contractx.QuoteResult{}, err
	}
	if len(bars.close) == 0 {
		return errorResult("No current price or trading data available for %s.", symbol), nil
	}

	price := bars.close[len(bars.close)-1]
	previous := price
	if len(bars.close) > 1 {
		previous = bars.close[len(bars.close)-2]
	}
	change := price - previous
	changePct := 0.0
	if previous != 0 {
		changePct = change / previous * 100
	}
	changeStr := fmt.Sprintf("%+.2f", change)

	return successResult(
		"For %s (%s), the current price is %s %.2f. The daily change is %s (%.2f%%).",
		name, symbol, bars.currency, price, changeStr, changePct,
	), nil
}

func (c *Client) historicalQuote(ctx context.Context, symbol, name string, date time.Time) (contractx.QuoteResult, error) {
	bars, err := c.chart(ctx, symbol, date, date.AddDate(0, 0, 1))
	if err != nil {
		return contractx.QuoteResult{}, err
	}
	if !bars.complete(1) {
		return errorResult(
			"No trading data found for %s on %s. The date might be a weekend, a holiday, or a future date.",
			symbol, date.Format("2006-01-02"),
		), nil
	}

	return successResult(
		"Here's the stock data for %s (%s) on %s:\n"+
			"  Open: %s %.2f\n"+
			"  High: %s %.2f\n"+
			"  Low: %s %.2f\n"+
			"  Close: %s %.2f\n"+
			"  Volume: %d",
		name, symbol, date.Format("2006-01-02"),
		bars.currency, bars.open[0],
		bars.currency, bars.high[0],
		bars.currency, bars.low[0],
		bars.currency, bars.close[0],
		bars.volume[0],
	), nil
}

// lastWeekQuote covers the previous calendar week, Monday through Sunday.
func (c *Client) lastWeekQuote(ctx context.Context, symbol, name string) (contractx.QuoteResult, error) {
	today := c.today()
	weekday := int(today.Weekday()+6) % 7 // Monday = 0
	startOfThisWeek := today.AddDate(0, 0, -weekday)
	endOfLastWeek := startOfThisWeek.AddDate(0, 0, -1)
	startOfLastWeek := endOfLastWeek.AddDate(0, 0, -6)

	bars, err := c.chart(ctx, symbol, startOfLastWeek, endOfLastWeek.AddDate(0, 0, 1))
	if err != nil {
		return contractx.QuoteResult{}, err
	}
	if len(bars.close) == 0 || !bars.complete(len(bars.close)) {
		return errorResult(
			"No trading data found for %s for last week (%s to %s).",
			symbol, startOfLastWeek.Format("2006-01-02"), endOfLastWeek.Format("2006-01-02"),
		), nil
	}

	var sum float64
	low, high := bars.low[0], bars.high[0]
	var volume int64
	for i := range bars.close {
		sum += bars.close[i]
		if bars.low[i] < low {
			low = bars.low[i]
		}
		if bars.high[i] > high {
			high = bars.high[i]
		}
		volume += bars.volume[i]
	}

	return successResult(
		"Here's the stock summary for %s (%s) for last week (%s to %s):\n"+
			"  Average Close: %s %.2f\n"+
			"  Week's High: %s %.2f\n"+
			"  Week's Low: %s %.2f\n"+
			"  Total Volume: %d",
		name, symbol,
		startOfLastWeek.Format("2006-01-02"), endOfLastWeek.Format("2006-01-02"),
		bars.currency, sum/float64(len(bars.close)),
		bars.currency, high,
		bars.currency, low,
		volume,
	), nil
}

func (c *Client) chart(ctx context.Context, symbol string, start, end time.Time) (*chartBars, error) {
	query := url.Values{}
	query.Set("period1", fmt.Sprintf("%d", start.Unix()))
	query.Set("period2", fmt.Sprintf("%d", end.Unix()))
	query.Set("interval", "1d")

	endpoint := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + query.Encode()

	var result struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Currency string `json:"currency"`
				} `json:"meta"`
				Indicators struct {
					Quote []struct {
						Open   []float64 `json:"open"`
						High   []float64 `json:"high"`
						Low    []float64 `json:"low"`
						Close  []float64 `json:"close"`
						Volume []int64   `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if result.Chart.Error != nil {
		return nil, contractx.Recoverablef("chart api error for %s: %s", symbol, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return &chartBars{}, nil
	}

	entry := result.Chart.Result[0]
	bars := &chartBars{
		currency: entry.Meta.Currency,
	}
	if bars.currency == "" {
		bars.currency = "USD"
	}
	if len(entry.Indicators.Quote) > 0 {
		q := entry.Indicators.Quote[0]
		bars.open, bars.high, bars.low, bars.close, bars.volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}
	return bars, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contractx.Recoverablef("stock request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.New("stock api endpoint not found")
	}
	if resp.StatusCode != http.StatusOK {
		return contractx.Recoverablef("stock api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return contractx.Recoverablef("unexpected stock api response: %v", err)
	}
	return nil
}

func successResult(format string, args ...any) contractx.QuoteResult {
	return contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: fmt.Sprintf(format, args...),
	}
}

func errorResult(format string, args ...any) contractx.QuoteResult {
	return contractx.QuoteResult{
		Status:  contractx.QuoteStatusError,
		Message: fmt.Sprintf(format, args...),
	}
}
