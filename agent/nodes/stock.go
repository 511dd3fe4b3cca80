package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	extractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/extract"
	memoryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/memory"
	retryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/retry"
)

// StockGuidance is returned when no stock query is resolvable; no provider
// call is made in that case.
const StockGuidance = "Sorry, I couldn't identify which stock you're asking about. " +
	"Please specify a company name like Google, Amazon, Apple, etc."

// Stock resolves (query, date) with memory fallbacks, fetches the quote
// through the retry policy, and wraps structured provider errors into a
// user-facing message. Provider errors never escape this node.
func Stock(
	ctx context.Context,
	in *State,
	provider contractx.StockProvider,
	policy retryx.Policy,
	mem *memoryx.Memory,
	progress contractx.ProgressFunc,
) (*State, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	progress("STOCK_TOOL_START", "Initializing...")
	in.ToolUsed = contractx.IntentStock

	query, date := extractx.StockQueryAndDate(in.Input, mem.LastStockQuery)

	if query == "" && mem.LastStockQuery != "" {
		query = mem.LastStockQuery
		progress("STOCK_TOOL_INFO", "Using remembered stock query: "+query)
		// The remembered date applies only when the current input carries no
		// date signal of its own.
		if date == "" && extractx.Date(in.Input) == "" && mem.LastStockDate != "" {
			date = mem.LastStockDate
			progress("STOCK_TOOL_INFO", "Using remembered date: "+date)
		}
	}

	if query == "" {
		progress("STOCK_TOOL_ERROR", "Could not identify stock query.")
		in.Result = StockGuidance
		return in, nil
	}

	identified := "Stock query identified: " + query
	if date != "" {
		identified += " for date/period: " + date
	}
	progress("STOCK_TOOL_INFO", identified)
	progress("STOCK_TOOL_INFO", fmt.Sprintf("Fetching stock data for %s...", query))

	result, err := retryx.Do(ctx, policy, "stocks.quote", func(ctx context.Context) (contractx.QuoteResult, error) {
		return provider.Quote(ctx, query, date)
	})
	if err != nil {
		msg := fmt.Sprintf("Error in stock tool: %v", err)
		progress("STOCK_TOOL_ERROR", "Final error: "+msg)
		in.Result = msg
		in.Err = err.Error()
		return in, nil
	}

	if result.IsError() {
		message := result.Message
		if message == "" {
			message = "An unknown error occurred in the stock tool."
		}
		progress("STOCK_TOOL_ERROR", "Stock tool reported: "+message)
		in.Result = fmt.Sprintf("Sorry, I couldn't fetch the stock information for '%s'. The tool said: %s", query, message)
	} else {
		progress("STOCK_TOOL_SUCCESS", "Stock data processed successfully!")
		in.Result = result.Content
		if in.Result == "" {
			in.Result = "No content received from the stock tool."
		}
	}

	mem.RememberStock(query, date)
	return in, nil
}
