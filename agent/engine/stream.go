package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	nodex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/nodes"
)

const internalErrorPrefix = "An internal error occurred while processing your request: "

// AskStream answers like Ask but delivers the result as a paced token stream:
// progress marker lines first (each starting with '[', for the transport to
// filter), then the fully computed answer word by word with explicit space and
// newline separators, in original order. The answer is computed before the
// first payload token is emitted; pacing is output shaping, not incremental
// computation. Canceling ctx stops token production and nothing else; all
// provider calls have completed by then. The channel is closed when the
// stream ends.
func (e *Engine) AskStream(ctx context.Context, text string) <-chan string {
	ch := make(chan string, e.cfg.StreamBuffer)

	go func() {
		defer close(ch)

		requestID := uuid.NewString()
		e.emitMarker(ctx, ch, "START", "Processing '"+text+"'...")

		normalized := e.mem.Resolve(text)
		if !strings.EqualFold(normalized, text) {
			e.emitMarker(ctx, ch, "MEMORY_INFO", "Interpreted as '"+normalized+"'.")
		}
		e.emitMarker(ctx, ch, "PROCESSING", "Thinking...")

		out, err := e.runner.Invoke(ctx, nodex.Input{
			RequestID: requestID,
			RawInput:  text,
			Input:     normalized,
		})
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("graph run failed during stream")
			e.paceTokens(ctx, ch, internalErrorPrefix+err.Error(), e.cfg.ErrorTokenDelay)
			return
		}

		e.paceTokens(ctx, ch, out.Result, e.cfg.TokenDelay)
	}()

	return ch
}

func (e *Engine) emitMarker(ctx context.Context, ch chan<- string, event, message string) bool {
	line := "[" + e.now().Format("15:04:05") + "] " + event + ": " + message + "\n"
	return send(ctx, ch, line)
}

// paceTokens splits text on single spaces and emits word, separator, word, ...
// then a closing newline, sleeping between tokens.
func (e *Engine) paceTokens(ctx context.Context, ch chan<- string, text string, delay time.Duration) {
	words := strings.Split(text, " ")
	for i, word := range words {
		if !send(ctx, ch, word) {
			return
		}
		if i < len(words)-1 {
			if !send(ctx, ch, " ") {
				return
			}
		}
		if !pause(ctx, delay) {
			return
		}
	}
	send(ctx, ch, "\n")
}

func send(ctx context.Context, ch chan<- string, token string) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- token:
		return true
	}
}

func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
