package nodes

import (
	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
)

// Input enters the graph once per request.
type Input struct {
	RequestID string
	RawInput  string
	// Input is the anaphora-resolved text the nodes operate on.
	Input string
}

// State is the per-request working state, owned exclusively by one graph run
// and discarded after the response is produced.
type State struct {
	RequestID string
	RawInput  string
	Input     string

	Scores   contractx.RouteScores
	Decision contractx.Intent

	Result   string
	ToolUsed contractx.Intent
	Err      string
}

// Output leaves the graph: the final non-empty result plus bookkeeping.
type Output struct {
	Result   string
	ToolUsed contractx.Intent
	Err      string
}

// NewState seeds the working state from the graph input.
func NewState(in Input) *State {
	return &State{
		RequestID: in.RequestID,
		RawInput:  in.RawInput,
		Input:     in.Input,
	}
}
