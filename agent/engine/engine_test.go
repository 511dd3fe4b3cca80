package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	nodex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/nodes"
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

func testConfig() Config {
	return Config{
		TokenDelay:      time.Nanosecond,
		ErrorTokenDelay: time.Nanosecond,
		StreamBuffer:    4,
	}
}

func newTestEngine(t *testing.T, weather *fakeWeather, stocks *fakeStocks) *Engine {
	t.Helper()
	e, err := New(weather, stocks, testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRequiresProviders(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeStocks{}, testConfig()); err == nil {
		t.Fatal("expected error without weather provider")
	}
	if _, err := New(&fakeWeather{}, nil, testConfig()); err == nil {
		t.Fatal("expected error without stock provider")
	}
}

func TestAskWeather(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{report: "Sunny and 25 degrees in London"}
	e := newTestEngine(t, weather, &fakeStocks{})

	got, err := e.Ask(context.Background(), "weather in London")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != weather.report {
		t.Fatalf("answer = %q", got)
	}
	if len(weather.calls) != 1 || weather.calls[0] != (weatherCall{city: "London", day: "today"}) {
		t.Fatalf("weather calls = %v", weather.calls)
	}

	snap := e.MemorySnapshot()
	if snap.LastCity != "London" || snap.LastIntent != contractx.IntentWeather {
		t.Fatalf("memory = %+v", snap)
	}
}

func TestAskStockFollowUpResolvesFromMemory(t *testing.T) {
	t.Parallel()

	stocks := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: "quote content",
	}}
	e := newTestEngine(t, &fakeWeather{}, stocks)

	if _, err := e.Ask(context.Background(), "Google stock price"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if _, err := e.Ask(context.Background(), "what about that stock yesterday"); err != nil {
		t.Fatalf("Ask follow-up: %v", err)
	}

	if len(stocks.calls) != 2 {
		t.Fatalf("stock calls = %v", stocks.calls)
	}
	if stocks.calls[0] != (stockCall{query: "GOOGL", date: ""}) {
		t.Fatalf("first call = %v", stocks.calls[0])
	}
	if stocks.calls[1] != (stockCall{query: "GOOGL", date: "yesterday"}) {
		t.Fatalf("follow-up call = %v", stocks.calls[1])
	}
}

func TestAskUnknownYieldsHelp(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{}
	stocks := &fakeStocks{}
	e := newTestEngine(t, weather, stocks)

	got, err := e.Ask(context.Background(), "xyzzy quux")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != nodex.HelpMessage {
		t.Fatalf("answer = %q", got)
	}
	if len(weather.calls) != 0 || len(stocks.calls) != 0 {
		t.Fatal("no provider may be called for an unknown request")
	}
}

func TestClearMemory(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{report: "A fine day"}
	e := newTestEngine(t, weather, &fakeStocks{})

	if _, err := e.Ask(context.Background(), "weather in Paris"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	e.ClearMemory()
	snap := e.MemorySnapshot()
	if snap.LastCity != "" || len(snap.History) != 0 {
		t.Fatalf("memory not cleared: %+v", snap)
	}
}

func TestAskStreamPacesAnswerAfterMarkers(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{report: "Sunny and warm today"}
	e := newTestEngine(t, weather, &fakeStocks{})

	var markers []string
	var payload strings.Builder
	sawPayload := false
	for token := range e.AskStream(context.Background(), "weather in London") {
		if strings.HasPrefix(strings.TrimSpace(token), "[") {
			if sawPayload {
				t.Fatalf("marker %q arrived after payload tokens", token)
			}
			markers = append(markers, token)
			continue
		}
		sawPayload = true
		payload.WriteString(token)
	}

	if len(markers) == 0 {
		t.Fatal("expected progress marker lines before the answer")
	}
	for _, m := range markers {
		if !strings.HasSuffix(m, "\n") {
			t.Fatalf("marker %q is not a full line", m)
		}
	}
	if payload.String() != "Sunny and warm today\n" {
		t.Fatalf("payload = %q", payload.String())
	}
}

func TestAskStreamTokenOrder(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{report: "alpha beta"}
	e := newTestEngine(t, weather, &fakeStocks{})

	var tokens []string
	for token := range e.AskStream(context.Background(), "weather in London") {
		if strings.HasPrefix(strings.TrimSpace(token), "[") {
			continue
		}
		tokens = append(tokens, token)
	}

	want := []string{"alpha", " ", "beta", "\n"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %q, want %q", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestAskStreamStopsOnCancel(t *testing.T) {
	t.Parallel()

	weather := &fakeWeather{report: "one two three four five"}
	e := newTestEngine(t, weather, &fakeStocks{})

	ctx, cancel := context.WithCancel(context.Background())
	ch := e.AskStream(ctx, "weather in London")

	if _, ok := <-ch; !ok {
		t.Fatal("expected at least one token before cancel")
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}

func TestAskStreamEmitsMemoryMarkerOnResolution(t *testing.T) {
	t.Parallel()

	stocks := &fakeStocks{result: contractx.QuoteResult{
		Status:  contractx.QuoteStatusSuccess,
		Content: "quote content",
	}}
	e := newTestEngine(t, &fakeWeather{}, stocks)

	if _, err := e.Ask(context.Background(), "Google stock price"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	found := false
	for token := range e.AskStream(context.Background(), "what about that stock yesterday") {
		if strings.Contains(token, "MEMORY_INFO") && strings.Contains(token, "GOOGL") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a MEMORY_INFO marker carrying the substitution")
	}
}
