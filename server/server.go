// Package server exposes the engine over HTTP: POST /ask streams the answer
// as plain text, with internal progress marker lines filtered out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	enginex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/engine"
)

type Config struct {
	Addr            string        `split_words:"true" default:":8000"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

type Server struct {
	engine *enginex.Engine
	http   *http.Server
}

type askRequest struct {
	Question string `json:"question"`
}

func New(engine *enginex.Engine, cfg Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}

	s := &Server{engine: engine}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/ask", s.handleAsk)

	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
	}
	return s, nil
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Agent backend is running."})
}

// handleAsk streams the token channel to the client, dropping progress marker
// lines (any chunk whose trimmed form starts with '[').
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	log.Info().Str("question", question).Msg("streaming answer")

	for token := range s.engine.AskStream(r.Context(), question) {
		if strings.HasPrefix(strings.TrimSpace(token), "[") {
			continue
		}
		if _, err := io.WriteString(w, token); err != nil {
			log.Debug().Err(err).Msg("client went away mid-stream")
			return
		}
		flusher.Flush()
	}
}
