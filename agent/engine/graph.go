package engine

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	nodex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/nodes"
)

// The graph is the request state machine: router -> (weather_tool | stock_tool |
// final_result) -> final_result -> END. No cycles; all retry logic lives
// inside the tool nodes.
func (e *Engine) compileAskGraph(
	ctx context.Context,
) (compose.Runnable[nodex.Input, nodex.Output], error) {
	graph := compose.NewGraph[nodex.Input, nodex.Output]()

	if err := graph.AddLambdaNode("router",
		compose.InvokableLambda(func(ctx context.Context, in nodex.Input) (*nodex.State, error) {
			return nodex.Route(nodex.NewState(in), e.progress)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node router: %w", err)
	}

	if err := graph.AddLambdaNode("weather_tool",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.State) (*nodex.State, error) {
			return nodex.Weather(ctx, in, e.weather, e.policy, e.mem, e.cfg.DefaultCity, e.progress)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node weather_tool: %w", err)
	}

	if err := graph.AddLambdaNode("stock_tool",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.State) (*nodex.State, error) {
			return nodex.Stock(ctx, in, e.stocks, e.policy, e.mem, e.progress)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node stock_tool: %w", err)
	}

	if err := graph.AddLambdaNode("final_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.State) (nodex.Output, error) {
			return nodex.Final(in, e.progress)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node final_result: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.State) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch in.Decision {
			case contractx.IntentWeather:
				return "weather_tool", nil
			case contractx.IntentStock:
				return "stock_tool", nil
			default:
				return "final_result", nil
			}
		},
		map[string]bool{
			"weather_tool": true,
			"stock_tool":   true,
			"final_result": true,
		},
	)
	if err := graph.AddBranch("router", branch); err != nil {
		return nil, fmt.Errorf("add router branch: %w", err)
	}

	if err := graph.AddEdge(compose.START, "router"); err != nil {
		return nil, fmt.Errorf("add edge start->router: %w", err)
	}
	if err := graph.AddEdge("weather_tool", "final_result"); err != nil {
		return nil, fmt.Errorf("add edge weather_tool->final_result: %w", err)
	}
	if err := graph.AddEdge("stock_tool", "final_result"); err != nil {
		return nil, fmt.Errorf("add edge stock_tool->final_result: %w", err)
	}
	if err := graph.AddEdge("final_result", compose.END); err != nil {
		return nil, fmt.Errorf("add edge final_result->end: %w", err)
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("agent.ask"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile ask graph: %w", err)
	}
	return runner, nil
}
