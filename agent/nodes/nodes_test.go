package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	memoryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/memory"
	retryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/retry"
)

type weatherCall struct {
	city string
	day  string
}

type fakeWeather struct {
	report string
	err    error
	calls  []weatherCall
}

func (f *fakeWeather) Report(ctx context.Context, city, day string) (string, error) {
	f.calls = append(f.calls, weatherCall{city: city, day: day})
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

type stockCall struct {
	query string
	date  string
}

type fakeStocks struct {
	result contractx.QuoteResult
	err    error
	calls  []stockCall
}

func (f *fakeStocks) Quote(ctx context.Context, query, dateToken string) (contractx.QuoteResult, error) {
	f.calls = append(f.calls, stockCall{query: query, date: dateToken})
	if f.err != nil {
		return contractx.QuoteResult{}, f.err
	}
	return f.result, nil
}

func fastPolicy() retryx.Policy {
	p := retryx.NewPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func stateFor(input string) *State {
	return NewState(Input{RequestID: "req-1", RawInput: input, Input: input})
}

func TestWeatherNodeExtractsCityAndDay(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{report: "Sunny and 25 degrees"}
	mem := memoryx.New()

	st, err := Weather(context.Background(), stateFor("weather in London tomorrow"),
		provider, fastPolicy(), mem, DefaultCity, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if st.Result != "Sunny and 25 degrees" {
		t.Fatalf("result = %q", st.Result)
	}
	if len(provider.calls) != 1 || provider.calls[0] != (weatherCall{city: "London", day: "tomorrow"}) {
		t.Fatalf("provider calls = %v", provider.calls)
	}
	if mem.LastCity != "London" || mem.LastIntent != contractx.IntentWeather {
		t.Fatalf("memory = %+v", mem)
	}
	if st.ToolUsed != contractx.IntentWeather {
		t.Fatalf("tool used = %q", st.ToolUsed)
	}
}

func TestWeatherNodeFallsBackToDefaultCity(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{report: "A fine day"}
	mem := memoryx.New()

	_, err := Weather(context.Background(), stateFor("weather today"),
		provider, fastPolicy(), mem, "Hyderabad", contractx.NopProgress)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if provider.calls[0].city != "Hyderabad" || provider.calls[0].day != "today" {
		t.Fatalf("provider calls = %v", provider.calls)
	}
}

func TestWeatherNodePrefersRememberedCityOverDefault(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{report: "Cloudy"}
	mem := memoryx.New()
	mem.RememberWeather("Paris")

	_, err := Weather(context.Background(), stateFor("weather today"),
		provider, fastPolicy(), mem, "Hyderabad", contractx.NopProgress)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if provider.calls[0].city != "Paris" {
		t.Fatalf("city = %q, want remembered Paris", provider.calls[0].city)
	}
}

func TestWeatherNodeWrapsProviderError(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{err: errors.New("boom")}
	mem := memoryx.New()

	st, err := Weather(context.Background(), stateFor("weather in London"),
		provider, fastPolicy(), mem, DefaultCity, contractx.NopProgress)
	if err != nil {
		t.Fatalf("provider errors must not escape the node: %v", err)
	}
	if st.Result != "Error in weather tool: boom" {
		t.Fatalf("result = %q", st.Result)
	}
	if st.Err == "" {
		t.Fatal("expected error bookkeeping on state")
	}
	if mem.LastCity != "" {
		t.Fatalf("failed call must not update memory, got city %q", mem.LastCity)
	}
}

func TestWeatherNodeRetriesRecoverableErrors(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{err: contractx.Recoverablef("timeout")}
	mem := memoryx.New()

	st, err := Weather(context.Background(), stateFor("weather in London"),
		provider, fastPolicy(), mem, DefaultCity, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(provider.calls))
	}
	if !strings.HasPrefix(st.Result, "Error in weather tool:") {
		t.Fatalf("result = %q", st.Result)
	}
}

func TestWeatherNodeWrapsInBandFailureText(t *testing.T) {
	t.Parallel()

	provider := &fakeWeather{report: "Service temporarily unavailable"}
	mem := memoryx.New()

	st, err := Weather(context.Background(), stateFor("weather in London"),
		provider, fastPolicy(), mem, DefaultCity, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	want := "Sorry, I couldn't fetch the weather information for 'London'. The tool said: Service temporarily unavailable"
	if st.Result != want {
		t.Fatalf("result = %q", st.Result)
	}
}

func TestStockNodeGuidanceWithoutQuery(t *testing.T) {
	t.Parallel()

	provider := &fakeStocks{}
	mem := memoryx.New()

	st, err := Stock(context.Background(), stateFor("tell me something nice please today"),
		provider, fastPolicy(), mem, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if st.Result != StockGuidance {
		t.Fatalf("result = %q", st.Result)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("provider must not be called without a query, got %v", provider.calls)
	}
}

func TestStockNodeSuccess(t *testing.T) {
	t.Parallel()

	provider := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: "GOOGL is at 180.00",
	}}
	mem := memoryx.New()

	st, err := Stock(context.Background(), stateFor("Google stock price"),
		provider, fastPolicy(), mem, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if st.Result != "GOOGL is at 180.00" {
		t.Fatalf("result = %q", st.Result)
	}
	if provider.calls[0] != (stockCall{query: "GOOGL", date: ""}) {
		t.Fatalf("provider calls = %v", provider.calls)
	}
	if mem.LastStockQuery != "GOOGL" || mem.LastIntent != contractx.IntentStock {
		t.Fatalf("memory = %+v", mem)
	}
}

func TestStockNodeUsesRememberedQueryAndDate(t *testing.T) {
	t.Parallel()

	provider := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: "AAPL data",
	}}
	mem := memoryx.New()
	mem.RememberStock("AAPL", "yesterday")

	_, err := Stock(context.Background(), stateFor("please give me an update now then"),
		provider, fastPolicy(), mem, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if provider.calls[0] != (stockCall{query: "AAPL", date: "yesterday"}) {
		t.Fatalf("provider calls = %v", provider.calls)
	}
}

func TestStockNodeRememberedDateIgnoredWhenInputHasDate(t *testing.T) {
	t.Parallel()

	provider := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: "AAPL data",
	}}
	mem := memoryx.New()
	mem.RememberStock("AAPL", "June 5, 2023")

	_, err := Stock(context.Background(), stateFor("Apple price last week"),
		provider, fastPolicy(), mem, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if provider.calls[0] != (stockCall{query: "AAPL", date: "last_week"}) {
		t.Fatalf("provider calls = %v", provider.calls)
	}
}

func TestStockNodeWrapsErrorResult(t *testing.T) {
	t.Parallel()

	provider := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusError,
		Message: "No trading data found for AAPL on 2023-06-05.",
	}}
	mem := memoryx.New()

	st, err := Stock(context.Background(), stateFor("Apple stock price"),
		provider, fastPolicy(), mem, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	want := "Sorry, I couldn't fetch the stock information for 'AAPL'. The tool said: No trading data found for AAPL on 2023-06-05."
	if st.Result != want {
		t.Fatalf("result = %q", st.Result)
	}
}

func TestFinalSubstitutesHelpForEmptyResult(t *testing.T) {
	t.Parallel()

	out, err := Final(stateFor("xyzzy quux"), contractx.NopProgress)
	if err != nil {
		t.Fatalf("Final: %v", err)
	}
	if out.Result != HelpMessage {
		t.Fatalf("result = %q", out.Result)
	}
}

func TestFinalKeepsNonEmptyResult(t *testing.T) {
	t.Parallel()

	st := stateFor("weather in London")
	st.Result = "Sunny"
	st.ToolUsed = contractx.IntentWeather

	out, err := Final(st, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Final: %v", err)
	}
	if out.Result != "Sunny" || out.ToolUsed != contractx.IntentWeather {
		t.Fatalf("out = %+v", out)
	}
}

func TestRouteScoresRawInput(t *testing.T) {
	t.Parallel()

	// After resolution "that stock" becomes a ticker; the decision still runs
	// on the raw text so the intent keyword is not lost.
	st := NewState(Input{
		RequestID: "req-1",
		RawInput:  "what about that stock yesterday",
		Input:     "what about GOOGL yesterday",
	})
	st, err := Route(st, contractx.NopProgress)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if st.Decision != contractx.IntentStock {
		t.Fatalf("decision = %q, want stock (scores %+v)", st.Decision, st.Scores)
	}
}
