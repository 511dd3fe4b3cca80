package nodes

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	extractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/extract"
	memoryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/memory"
	retryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/retry"
)

// DefaultCity is used when neither the input nor the memory yields a city.
const DefaultCity = "Hyderabad"

var failureMarkers = []string{"failed", "error", "unavailable"}

// Weather resolves a city and day token, fetches the report through the retry
// policy, and wraps provider failures into a user-facing message. Provider
// errors never escape this node.
func Weather(
	ctx context.Context,
	in *State,
	provider contractx.WeatherProvider,
	policy retryx.Policy,
	mem *memoryx.Memory,
	defaultCity string,
	progress contractx.ProgressFunc,
) (*State, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	progress("WEATHER_TOOL_START", "Initializing...")
	in.ToolUsed = contractx.IntentWeather

	city := extractx.City(in.Input)
	if city == "" {
		city = mem.LastCity
		if city == "" {
			if defaultCity == "" {
				defaultCity = DefaultCity
			}
			city = defaultCity
		}
		progress("WEATHER_TOOL_INFO", fmt.Sprintf("Using city: %s (from memory or default)", city))
	} else {
		progress("WEATHER_TOOL_INFO", fmt.Sprintf("City identified: %s", city))
	}

	day := extractx.Date(in.Input)
	if day == "" {
		day = "today"
	}
	progress("WEATHER_TOOL_INFO", fmt.Sprintf("Fetching %s's weather for %s...", day, city))

	report, err := retryx.Do(ctx, policy, "weather.report", func(ctx context.Context) (string, error) {
		return provider.Report(ctx, city, day)
	})
	if err != nil {
		msg := fmt.Sprintf("Error in weather tool: %v", err)
		progress("WEATHER_TOOL_ERROR", "Final error: "+msg)
		in.Result = msg
		in.Err = err.Error()
		return in, nil
	}

	if containsFailureMarker(report) {
		progress("WEATHER_TOOL_ERROR", "Tool reported: "+report)
		in.Result = fmt.Sprintf("Sorry, I couldn't fetch the weather information for '%s'. The tool said: %s", city, report)
	} else {
		progress("WEATHER_TOOL_SUCCESS", "Data processed!")
		in.Result = report
	}

	mem.RememberWeather(city)
	return in, nil
}

func containsFailureMarker(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range failureMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
