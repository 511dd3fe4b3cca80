package nodes

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	routerx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/router"
)

// Route scores the input against the keyword tables and records the ternary
// routing decision on the state.
func Route(in *State, progress contractx.ProgressFunc) (*State, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	progress("ROUTER_START", fmt.Sprintf("Analyzing request: '%s'", in.Input))

	// Scoring runs on the raw input: the resolver may have substituted an
	// anaphor ("that stock") with a remembered entity, which would otherwise
	// erase the very keyword that signals the intent.
	in.Scores = routerx.Score(in.RawInput)
	progress("ROUTER_ANALYSIS", fmt.Sprintf("Scores - Weather: %d, Stock: %d",
		in.Scores.Weather, in.Scores.TotalStock()))

	in.Decision = routerx.Decide(in.Scores, in.RawInput)
	progress("ROUTE_DECISION", fmt.Sprintf("Decision: %s (W: %d, S_Total: %d)",
		in.Decision, in.Scores.Weather, in.Scores.TotalStock()))

	log.Debug().
		Str("request_id", in.RequestID).
		Int("weather_score", in.Scores.Weather).
		Int("stock_score", in.Scores.TotalStock()).
		Str("decision", string(in.Decision)).
		Msg("routed request")

	return in, nil
}
