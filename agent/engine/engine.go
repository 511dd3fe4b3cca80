// Package engine runs the request pipeline: memory resolution, the routing
// graph, and token-paced delivery of the computed answer.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
	memoryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/memory"
	nodex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/nodes"
	retryx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/retry"
)

type Config struct {
	DefaultCity     string        `envconfig:"DEFAULT_CITY" split_words:"true" default:"Hyderabad"`
	TokenDelay      time.Duration `envconfig:"TOKEN_DELAY" split_words:"true" default:"50ms"`
	ErrorTokenDelay time.Duration `envconfig:"ERROR_TOKEN_DELAY" split_words:"true" default:"20ms"`
	StreamBuffer    int           `envconfig:"STREAM_BUFFER" split_words:"true" default:"16"`
}

// Engine owns one ConversationMemory for its whole lifetime. Requests against
// the same Engine share that memory without isolation; this is a deliberate
// single-session assumption.
type Engine struct {
	weather contractx.WeatherProvider
	stocks  contractx.StockProvider
	mem     *memoryx.Memory
	policy  retryx.Policy

	runner compose.Runnable[nodex.Input, nodex.Output]

	cfg      Config
	progress contractx.ProgressFunc
	now      func() time.Time
}

type Option func(*Engine)

// WithProgress installs the hook receiving user-visible progress events.
func WithProgress(fn contractx.ProgressFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.progress = fn
		}
	}
}

// WithRetryPolicy replaces the default provider retry policy.
func WithRetryPolicy(p retryx.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithClock replaces the time source used for progress marker timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(
	weather contractx.WeatherProvider,
	stocks contractx.StockProvider,
	cfg Config,
	opts ...Option,
) (*Engine, error) {
	if weather == nil {
		return nil, errors.New("weather provider is required")
	}
	if stocks == nil {
		return nil, errors.New("stock provider is required")
	}

	if cfg.DefaultCity == "" {
		cfg.DefaultCity = nodex.DefaultCity
	}
	if cfg.TokenDelay <= 0 {
		cfg.TokenDelay = 50 * time.Millisecond
	}
	if cfg.ErrorTokenDelay <= 0 {
		cfg.ErrorTokenDelay = 20 * time.Millisecond
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = 16
	}

	e := &Engine{
		weather:  weather,
		stocks:   stocks,
		mem:      memoryx.New(),
		policy:   retryx.NewPolicy(),
		cfg:      cfg,
		progress: contractx.NopProgress,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.policy.Progress = e.progress

	runner, err := e.compileAskGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.runner = runner

	return e, nil
}

// Ask resolves contextual references, runs the routing graph, and returns the
// final answer. The answer is never empty on a nil error.
func (e *Engine) Ask(ctx context.Context, text string) (string, error) {
	out, err := e.invoke(ctx, text)
	if err != nil {
		return "", err
	}
	return out.Result, nil
}

func (e *Engine) invoke(ctx context.Context, text string) (nodex.Output, error) {
	requestID := uuid.NewString()

	normalized := e.mem.Resolve(text)
	if !strings.EqualFold(normalized, text) {
		e.progress("MEMORY_INFO", "Interpreted as '"+normalized+"'.")
	}

	out, err := e.runner.Invoke(ctx, nodex.Input{
		RequestID: requestID,
		RawInput:  text,
		Input:     normalized,
	})
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("graph run failed")
		return nodex.Output{}, err
	}

	log.Info().
		Str("request_id", requestID).
		Str("tool_used", string(out.ToolUsed)).
		Msg("request completed")
	return out, nil
}

// MemorySnapshot returns a copy of the conversation memory for display.
func (e *Engine) MemorySnapshot() memoryx.Memory {
	return e.mem.Snapshot()
}

// ClearMemory resets the conversation memory to its initial empty state.
func (e *Engine) ClearMemory() {
	e.mem.Clear()
}
