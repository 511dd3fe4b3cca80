// Package weather fetches reports from the Visual Crossing timeline API and
// renders them as user-facing text.
package weather

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

const defaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

type Config struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("visual crossing api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
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

type conditions struct {
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feelslike"`
	Conditions string  `json:"conditions"`
	Humidity   float64 `json:"humidity"`
	WindSpeed  float64 `json:"windspeed"`
}

type timelineResponse struct {
	ResolvedAddress   string       `json:"resolvedAddress"`
	CurrentConditions *conditions  `json:"currentConditions"`
	Days              []conditions `json:"days"`
}

// Report answers for a day token: "today" (or empty), "tomorrow",
// "yesterday", "last_week", or a literal date phrase like "June 5, 2023".
// Transport and data failures come back in the recoverable error class.
func (c *Client) Report(ctx context.Context, city, day string) (string, error) {
	if strings.TrimSpace(city) == "" {
		return "", fmt.Errorf("%w: city is required", contractx.ErrValidation)
	}

	token := strings.ToLower(strings.TrimSpace(day))
	switch token {
	case "", "today":
		return c.todayReport(ctx, city)
	case "tomorrow":
		return c.tomorrowReport(ctx, city)
	case "yesterday":
		date := c.now().AddDate(0, 0, -1)
		return c.historicalReport(ctx, city, date, "Yesterday")
	case "last_week":
		return c.lastWeekReport(ctx, city)
	default:
		date, err := extractx.ParseDate(day)
		if err != nil {
			return "", fmt.Errorf("%w: invalid day or date %q, use 'today', 'tomorrow', 'yesterday' or a date like 'June 5, 2023'", contractx.ErrValidation, day)
		}
		if date.Year() == 0 {
			date = time.Date(c.now().Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		}
		if date.After(c.now()) {
			return "", fmt.Errorf("%w: cannot fetch historical weather for a future date %s", contractx.ErrValidation, date.Format("2006-01-02"))
		}
		return c.historicalReport(ctx, city, date, date.Format("January 2, 2006"))
	}
}

func (c *Client) todayReport(ctx context.Context, city string) (string, error) {
	data, err := c.fetch(ctx, fmt.Sprintf("/%s/today", url.PathEscape(city)), "current")
	if err != nil {
		return "", err
	}
	if data.CurrentConditions == nil {
		return "", contractx.Recoverablef("weather data not found for %s", city)
	}
	return singleDayReport(resolvedCity(data, city), "Today", *data.CurrentConditions), nil
}

func (c *Client) tomorrowReport(ctx context.Context, city string) (string, error) {
	data, err := c.fetch(ctx, fmt.Sprintf("/%s/tomorrow", url.PathEscape(city)), "days")
	if err != nil {
		return "", err
	}
	if len(data.Days) == 0 {
		return "", contractx.Recoverablef("weather forecast not found for %s (tomorrow)", city)
	}
	return singleDayReport(resolvedCity(data, city), "Tomorrow", data.Days[0]), nil
}

func (c *Client) historicalReport(ctx context.Context, city string, date time.Time, label string) (string, error) {
	day := date.Format("2006-01-02")
	data, err := c.fetch(ctx, fmt.Sprintf("/%s/%s/%s", url.PathEscape(city), day, day), "days")
	if err != nil {
		return "", err
	}
	if len(data.Days) == 0 {
		return "", contractx.Recoverablef("historical weather data not found for %s on %s", city, day)
	}
	return singleDayReport(resolvedCity(data, city), label, data.Days[0]), nil
}

func (c *Client) lastWeekReport(ctx context.Context, city string) (string, error) {
	end := c.now().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)
	startStr, endStr := start.Format("2006-01-02"), end.Format("2006-01-02")

	data, err := c.fetch(ctx, fmt.Sprintf("/%s/%s/%s", url.PathEscape(city), startStr, endStr), "days")
	if err != nil {
		return "", err
	}
	if len(data.Days) == 0 {
		return "", contractx.Recoverablef("weather data not found for %s for %s to %s", city, startStr, endStr)
	}

	var temp, feels, humidity, wind float64
	for _, d := range data.Days {
		temp += d.Temp
		feels += d.FeelsLike
		humidity += d.Humidity
		wind += d.WindSpeed
	}
	n := float64(len(data.Days))
	sample := capitalize(data.Days[len(data.Days)/2].Conditions)

	return fmt.Sprintf(
		"Here's the weather summary for Last Week (%s to %s) in %s:\n"+
			"  Average Temperature: %.1f\u00b0C\n"+
			"  Average Feels Like: %.1f\u00b0C\n"+
			"  Average Humidity: %.1f%%\n"+
			"  Average Wind Speed: %.1f km/h\n"+
			"  Conditions were varied, for example: %s",
		startStr, endStr, resolvedCity(data, city), temp/n, feels/n, humidity/n, wind/n, sample,
	), nil
}

func (c *Client) fetch(ctx context.Context, path, include string) (*timelineResponse, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("unitGroup", "metric")
	query.Set("include", include)
	query.Set("contentType", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contractx.Recoverablef("weather request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, contractx.Recoverablef("weather api returned status %d", resp.StatusCode)
	}

	var data timelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, contractx.Recoverablef("unexpected weather api response: %v", err)
	}
	return &data, nil
}

func resolvedCity(data *timelineResponse, fallback string) string {
	if data.ResolvedAddress == "" {
		return fallback
	}
	name, _, _ := strings.Cut(data.ResolvedAddress, ",")
	return strings.TrimSpace(name)
}

func singleDayReport(city, day string, c conditions) string {
	return fmt.Sprintf(
		"Here is the weather for %s in %s:\n"+
			"  Temperature: %.1f\u00b0C (feels like %.1f\u00b0C)\n"+
			"  Conditions: %s\n"+
			"  Humidity: %.1f%%\n"+
			"  Wind Speed: %.1f km/h",
		day, city, c.Temp, c.FeelsLike, capitalize(c.Conditions), c.Humidity, c.WindSpeed,
	)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
