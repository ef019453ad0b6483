package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// ErrAllFailed wraps the last error once every member of a [FallbackGroup]
// has failed or been skipped by its breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig is the breaker template applied to every member of a
// [FallbackGroup]. Its Name is replaced by the member name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type member[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds interchangeable backends in preference order, each
// behind its own [CircuitBreaker]. Members must be added before the group is
// shared between goroutines.
type FallbackGroup[T any] struct {
	members []member[T]
	cfg     FallbackConfig
}

// NewFallbackGroup returns a group whose first member is primary.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a member, tried after all earlier ones.
func (fg *FallbackGroup[T]) AddFallback(name string, v T) {
	cfg := fg.cfg.CircuitBreaker
	cfg.Name = name
	fg.members = append(fg.members, member[T]{name: name, value: v, breaker: NewCircuitBreaker(cfg)})
}

// Len reports the number of members, primary included.
func (fg *FallbackGroup[T]) Len() int { return len(fg.members) }

// Primary returns the first member.
func (fg *FallbackGroup[T]) Primary() T { return fg.members[0].value }

// BreakerStates maps member names to their breaker state.
func (fg *FallbackGroup[T]) BreakerStates() map[string]State {
	return lo.SliceToMap(fg.members, func(m member[T]) (string, State) {
		return m.name, m.breaker.State()
	})
}

// Execute is [ExecuteWithResult] for calls without a result.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) { return struct{}{}, fn(v) })
	return err
}

// ExecuteWithResult calls fn on each member in order and returns the first
// success. Members whose breaker is open are skipped. When ctx ends between
// attempts its error is returned; otherwise exhausting the group yields an
// error wrapping [ErrAllFailed] and the last failure.
func ExecuteWithResult[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var zero R
	lastErr := errors.New("no members")
	for i, m := range fg.members {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("resilience: %w", err)
		}

		var out R
		err := m.breaker.Execute(func() (callErr error) {
			out, callErr = fn(m.value)
			return callErr
		})
		switch {
		case err == nil:
			if i > 0 {
				slog.Info("served by fallback provider", "provider", m.name, "position", i)
			}
			return out, nil
		case errors.Is(err, ErrCircuitOpen):
			slog.Debug("provider skipped, circuit open", "provider", m.name)
		default:
			slog.Warn("provider failed", "provider", m.name, "err", err)
		}
		lastErr = err
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
