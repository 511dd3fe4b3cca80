package nodes

import (
	"fmt"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
)

// HelpMessage is the fixed capability description substituted whenever the
// upstream result is empty, so every request yields a non-empty answer.
const HelpMessage = "I'm sorry, I couldn't understand your request. I can help you with:\n" +
	"- Weather information (e.g., 'weather in Chennai', 'weather tomorrow', 'weather yesterday')\n" +
	"- Stock prices (e.g., 'price of Google stock', 'Amazon share price on June 5', 'Apple stock last week')"

// Final converges the graph: it guarantees a non-empty result.
func Final(in *State, progress contractx.ProgressFunc) (Output, error) {
	if in == nil {
		return Output{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Result == "" {
		in.Result = HelpMessage
	}

	progress("FINALIZING", "Finalizing response...")
	progress("REQUEST_COMPLETE", "Request completed.")

	return Output{
		Result:   in.Result,
		ToolUsed: in.ToolUsed,
		Err:      in.Err,
	}, nil
}
