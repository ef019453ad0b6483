// Package resilience keeps language-model outages from stalling
// conversations.
//
// [CircuitBreaker] stops calling a backend after repeated failures and lets a
// probe through once a cool-down has passed. [FallbackGroup] puts several
// backends of one kind behind their own breakers and tries them in order.
// [LLMFallback] is that group specialised to [llm.Provider].
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] instead of calling
// the wrapped function while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards all calls.
	StateClosed State = iota

	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen

	// StateHalfOpen admits HalfOpenMax probes at a time. A successful probe
	// closes the breaker; a failed one opens it again.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig tunes a [CircuitBreaker]. Zero fields take the
// documented defaults.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and OnStateChange.
	Name string

	// MaxFailures consecutive failures open a closed breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is the cool-down before an open breaker admits a probe.
	// Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax bounds concurrent probes and is the number of successes
	// needed to close again. Default: 1.
	HalfOpenMax int

	// IsFailure classifies errors. The default ignores context.Canceled
	// because a caller hanging up says nothing about the backend.
	IsFailure func(error) bool

	// OnStateChange is called after every transition. It runs with the
	// breaker's lock held and must not call back into the breaker.
	OnStateChange func(name string, from, to State)

	// Now overrides the clock in tests.
	Now func() time.Time
}

// tally counts outcomes within one generation.
type tally struct {
	inFlight  int
	successes int
	failures  int
}

// CircuitBreaker implements the closed/open/half-open breaker. Every
// transition starts a new generation; outcomes reported for an older
// generation are discarded so a slow call cannot flip a breaker that has
// moved on.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	resetTimeout  time.Duration
	halfOpenMax   int
	isFailure     func(error) bool
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     tally
	reopenAt   time.Time
}

// NewCircuitBreaker returns a closed breaker configured by cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		resetTimeout:  cfg.ResetTimeout,
		halfOpenMax:   cfg.HalfOpenMax,
		isFailure:     cfg.IsFailure,
		onStateChange: cfg.OnStateChange,
		now:           cfg.Now,
	}
	if cb.maxFailures <= 0 {
		cb.maxFailures = 5
	}
	if cb.resetTimeout <= 0 {
		cb.resetTimeout = 30 * time.Second
	}
	if cb.halfOpenMax <= 0 {
		cb.halfOpenMax = 1
	}
	if cb.isFailure == nil {
		cb.isFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	if cb.now == nil {
		cb.now = time.Now
	}
	return cb
}

// Name returns the label the breaker was created with.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute calls fn unless the breaker rejects the call, in which case it
// returns [ErrCircuitOpen]. fn's error is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.report(gen, err)
	return err
}

// admit reserves a slot in the current generation.
func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advanceClock()
	switch cb.state {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if cb.counts.inFlight >= cb.halfOpenMax {
			return 0, ErrCircuitOpen
		}
	}
	cb.counts.inFlight++
	return cb.generation, nil
}

// report records the outcome of a call admitted in generation gen.
func (cb *CircuitBreaker) report(gen uint64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if gen != cb.generation {
		return
	}
	cb.counts.inFlight--

	switch {
	case err == nil:
		cb.counts.successes++
		cb.counts.failures = 0
		if cb.state == StateHalfOpen && cb.counts.successes >= cb.halfOpenMax {
			cb.setState(StateClosed)
		}
	case cb.isFailure(err):
		cb.counts.failures++
		if cb.state == StateHalfOpen || cb.counts.failures >= cb.maxFailures {
			slog.Warn("circuit breaker opened", "name", cb.name, "from", cb.state, "consecutive_failures", cb.counts.failures)
			cb.setState(StateOpen)
		}
	}
}

// advanceClock moves an expired open breaker to half-open. Must be called
// with cb.mu held.
func (cb *CircuitBreaker) advanceClock() {
	if cb.state == StateOpen && !cb.now().Before(cb.reopenAt) {
		cb.setState(StateHalfOpen)
	}
}

// setState starts a new generation in state to. Must be called with cb.mu
// held.
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.generation++
	cb.counts = tally{}
	if to == StateOpen {
		cb.reopenAt = cb.now().Add(cb.resetTimeout)
	}
	if to != StateOpen {
		slog.Info("circuit breaker state changed", "name", cb.name, "from", from, "to", to)
	}
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// State reports the breaker's mode. An open breaker whose cool-down has
// passed reports [StateHalfOpen]; the transition itself happens on the next
// Execute.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && !cb.now().Before(cb.reopenAt) {
		return StateHalfOpen
	}
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setState(StateClosed)
	cb.generation++
	cb.counts = tally{}
}
