// Package app wires all tripmate subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithListener, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/tripmate/internal/affiliate"
	"github.com/MrWong99/tripmate/internal/agent"
	"github.com/MrWong99/tripmate/internal/api"
	"github.com/MrWong99/tripmate/internal/config"
	"github.com/MrWong99/tripmate/internal/fallback"
	"github.com/MrWong99/tripmate/internal/health"
	"github.com/MrWong99/tripmate/internal/knowledge"
	"github.com/MrWong99/tripmate/internal/observe"
	"github.com/MrWong99/tripmate/internal/offers"
	"github.com/MrWong99/tripmate/internal/resilience"
	"github.com/MrWong99/tripmate/internal/statestore"
	"github.com/MrWong99/tripmate/pkg/provider/llm"
)

// shutdownTimeout bounds the graceful HTTP drain once Run's context is done.
const shutdownTimeout = 10 * time.Second

// NamedLLM is a language-model backend together with the name used for its
// circuit breaker and in logs.
type NamedLLM struct {
	Name     string
	Provider llm.Provider
}

// Providers holds the language-model backends built by main.go via the
// config registry. A nil primary means every turn is answered by the
// rule-based fallback.
type Providers struct {
	LLM       llm.Provider
	Fallbacks []NamedLLM
}

// errNoLLM is returned by the placeholder model used when no provider is
// configured.
var errNoLLM = errors.New("app: no language model configured")

type noLLM struct{}

func (noLLM) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errNoLLM
}

func (noLLM) Capabilities() llm.ModelCapabilities { return llm.ModelCapabilities{} }

// App owns all subsystem lifetimes.
type App struct {
	cfg       config.Config
	providers *Providers

	// Subsystems, initialised in New and torn down in Shutdown.
	store          statestore.Store
	llm            *resilience.LLMFallback
	knowledge      *knowledge.Base
	agent          *agent.Agent
	api            *api.Server
	metrics        *observe.Metrics
	metricsHandler http.Handler
	listener       net.Listener

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a state store instead of opening one from config. The
// App does not close an injected store.
func WithStore(s statestore.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithListener makes Run serve on ln instead of listening on
// server.listen_addr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Defaults are
// applied to cfg.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg.WithDefaults(),
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. State store ───────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Language model with failover ──────────────────────────────────
	a.initLLM()

	// ── 3. Agent: offers, knowledge, fallback, orchestrator ──────────────
	if err := a.initAgent(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init agent: %w", err)
	}

	// ── 4. HTTP API ──────────────────────────────────────────────────────
	if err := a.initAPI(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init api: %w", err)
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore opens and migrates the configured state backend unless one was
// injected.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	s, err := OpenStore(ctx, a.cfg.Store)
	if err != nil {
		return err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	if _, err := Migrate(ctx, s); err != nil {
		return err
	}
	slog.Info("state store ready", "backend", a.cfg.Store.Backend)
	return nil
}

// initLLM puts the configured providers behind per-provider circuit breakers.
func (a *App) initLLM() {
	primary, name := a.providers.LLM, a.cfg.Providers.LLM.Name
	if primary == nil {
		slog.Warn("no LLM provider available; every turn will use the rule-based fallback")
		primary, name = noLLM{}, "none"
	}
	if name == "" {
		name = "primary"
	}

	fbCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("llm circuit breaker state changed", "provider", name, "from", from, "to", to)
				a.metrics.RecordBreakerTransition(context.Background(), name, to.String())
			},
		},
	}
	a.llm = resilience.NewLLMFallback(primary, name, fbCfg)
	for _, fb := range a.providers.Fallbacks {
		a.llm.AddFallback(fb.Name, fb.Provider)
		slog.Info("llm fallback registered", "provider", fb.Name)
	}
}

// initAgent builds the offer pipeline and the orchestrator.
func (a *App) initAgent() error {
	registry := affiliate.NewRegistry(a.cfg.Affiliates.AffiliateProviders()...)
	if err := registry.Validate(); err != nil {
		slog.Warn("some affiliate providers are invalid and will be skipped", "err", err)
	}
	selector := offers.NewSelector(registry)

	kb, err := knowledge.Builtin(a.cfg.Knowledge.Facts)
	if err != nil {
		return err
	}
	a.knowledge = kb

	fb := fallback.New(selector, fallback.WithCities(a.cfg.Agent.FallbackCities))

	ag, err := agent.New(agent.Config{
		LLM:              a.llm,
		Store:            a.store,
		Selector:         selector,
		Fallback:         fb,
		Knowledge:        kb,
		Persona:          a.cfg.Agent.Persona,
		RequestTimeout:   a.cfg.Agent.RequestTimeout,
		MergeTemperature: a.cfg.Agent.MergeTemperature,
		ReplyTemperature: a.cfg.Agent.ReplyTemperature,
		MaxReplyTokens:   a.cfg.Agent.MaxReplyTokens,
		Metrics:          a.metrics,
	})
	if err != nil {
		return err
	}
	a.agent = ag
	slog.Info("agent ready",
		"affiliates", len(registry.Providers()),
		"knowledge_entries", kb.Len(),
		"llm_fallbacks", len(a.providers.Fallbacks),
	)
	return nil
}

// initAPI builds the HTTP front end with readiness checks for the store and
// the language-model breakers.
func (a *App) initAPI() error {
	checks := []health.Checker{health.PingChecker("store", a.store)}
	if a.providers.LLM != nil {
		checks = append(checks, health.BreakerChecker("llm", a.llm.BreakerStates))
	}
	h := health.New(checks...)
	rateLimit := a.cfg.Server.RateLimit
	if rateLimit < 0 {
		rateLimit = 0
	}
	srv, err := api.New(api.Config{
		Agent:          a.agent,
		Store:          a.store,
		Health:         h,
		MetricsHandler: a.metricsHandler,
		Metrics:        a.metrics,
		RateLimit:      rateLimit,
	})
	if err != nil {
		return err
	}
	a.api = srv
	return nil
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Agent returns the turn orchestrator.
func (a *App) Agent() *agent.Agent { return a.agent }

// Store returns the state store.
func (a *App) Store() statestore.Store { return a.store }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.api }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP and blocks until ctx is cancelled or the server fails.
// On cancellation the server is drained gracefully and Run returns
// ctx.Err().
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen %s: %w", a.cfg.Server.ListenAddr, err)
		}
	}

	server := &http.Server{
		Handler:           a.api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = server.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown incomplete", "err", err)
		}
		return nil
	})

	slog.Info("app running", "addr", ln.Addr().String())
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll releases whatever New managed to open before failing.
func (a *App) closeAll() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("closer error", "err", err)
		}
	}
	a.closers = nil
}
