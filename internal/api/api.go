// Package api exposes the travel agent over HTTP.
//
// Routes:
//
//	POST   /v1/chat                       one turn, JSON in and out
//	GET    /v1/chat/ws                    websocket, one JSON frame per turn
//	GET    /v1/conversations/{id}/state   current trip state
//	DELETE /v1/conversations/{id}         forget a conversation
//	GET    /healthz, /readyz              probes
//	GET    /metrics                       Prometheus exposition
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/MrWong99/tripmate/internal/agent"
	"github.com/MrWong99/tripmate/internal/health"
	"github.com/MrWong99/tripmate/internal/observe"
	"github.com/MrWong99/tripmate/internal/statestore"
	"github.com/MrWong99/tripmate/internal/trip"
)

// MaxMessageRunes is the longest user message accepted by the chat routes.
const MaxMessageRunes = 4000

// maxBodyBytes caps the size of a chat request body.
const maxBodyBytes = 64 << 10

// Turner answers one user message. *agent.Agent satisfies it.
type Turner interface {
	HandleTurn(ctx context.Context, conversationID, message string) agent.Result
}

// StateStore is the subset of [statestore.Store] the conversation routes use.
type StateStore interface {
	Load(ctx context.Context, conversationID string) (trip.State, error)
	Delete(ctx context.Context, conversationID string) error
}

// Config wires a [Server].
type Config struct {
	// Agent answers chat turns. Required.
	Agent Turner

	// Store backs the conversation routes. Required.
	Store StateStore

	// Health serves /healthz and /readyz. Nil registers a handler without
	// checks.
	Health *health.Handler

	// MetricsHandler serves /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// Metrics records HTTP and websocket instruments. Nil uses
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// RateLimit is the number of chat requests allowed per client IP per
	// minute. Zero or negative disables limiting.
	RateLimit int

	// NewID generates conversation IDs for requests that omit one. Nil uses
	// random UUIDs.
	NewID func() string

	// AllowedOrigins lists host patterns permitted to open the chat
	// websocket from a browser. Same-origin requests are always allowed.
	AllowedOrigins []string
}

// Server is the HTTP front end. Create it with [New].
type Server struct {
	agent   Turner
	store   StateStore
	metrics *observe.Metrics
	newID   func() string
	origins []string
	router  chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("api: agent is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	s := &Server{
		agent:   cfg.Agent,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		newID:   cfg.NewID,
		origins: cfg.AllowedOrigins,
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(observe.Middleware(s.metrics))

	h := cfg.Health
	if h == nil {
		h = health.New()
	}
	h.Register(r)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimit > 0 {
				r.Use(rateLimit(cfg.RateLimit, time.Minute))
			}
			r.Post("/chat", s.handleChat)
			r.Get("/chat/ws", s.handleChatWS)
		})
		r.Get("/conversations/{id}/state", s.handleGetState)
		r.Delete("/conversations/{id}", s.handleDelete)
	})
	s.router = r
	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// rateLimit limits requests per client IP with a sliding window and answers
// with a JSON 429.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limit_exceeded", Detail: "Too many requests. Please try again later."})
		}),
	)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("api: write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, reason string, err error) {
	body := errorBody{Error: reason}
	if err != nil {
		body.Detail = err.Error()
	}
	writeJSON(w, code, body)
}
