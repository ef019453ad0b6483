package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newStringGroup() *FallbackGroup[string] {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour},
	})
	fg.AddFallback("secondary", "secondary")
	return fg
}

func TestFallbackGroup_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		failing    map[string]bool
		wantCalled string
		wantErr    error
	}{
		{name: "primary succeeds", wantCalled: "primary"},
		{name: "failover", failing: map[string]bool{"primary": true}, wantCalled: "secondary"},
		{name: "all fail", failing: map[string]bool{"primary": true, "secondary": true}, wantErr: ErrAllFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fg := newStringGroup()

			var called string
			err := fg.Execute(context.Background(), func(v string) error {
				if tt.failing[v] {
					return errTest
				}
				called = v
				return nil
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, errTest) {
					t.Errorf("err = %v, want it to wrap the last failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if called != tt.wantCalled {
				t.Fatalf("called = %q, want %q", called, tt.wantCalled)
			}
		})
	}
}

func TestFallbackGroup_SkipsOpenProvider(t *testing.T) {
	t.Parallel()
	fg := newStringGroup()
	ctx := context.Background()

	for range 2 {
		_ = fg.Execute(ctx, func(v string) error {
			if v == "primary" {
				return errTest
			}
			return nil
		})
	}

	states := fg.BreakerStates()
	if states["primary"] != StateOpen || states["secondary"] != StateClosed {
		t.Fatalf("BreakerStates() = %v", states)
	}

	var calls []string
	err := fg.Execute(ctx, func(v string) error {
		calls = append(calls, v)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0] != "secondary" {
		t.Fatalf("calls = %v, want [secondary]", calls)
	}
}

func TestFallbackGroup_StopsWhenContextDone(t *testing.T) {
	t.Parallel()
	fg := newStringGroup()
	ctx, cancel := context.WithCancel(context.Background())

	var calls []string
	_, err := ExecuteWithResult(ctx, fg, func(v string) (int, error) {
		calls = append(calls, v)
		cancel()
		return 0, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrAllFailed) {
		t.Error("cancellation must not be reported as ErrAllFailed")
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %v, want only the primary", calls)
	}
}

func TestExecuteWithResult(t *testing.T) {
	t.Parallel()
	fg := newStringGroup()

	got, err := ExecuteWithResult(context.Background(), fg, func(v string) (int, error) {
		if v == "primary" {
			return 0, errTest
		}
		return len(v), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != len("secondary") {
		t.Fatalf("result = %d, want %d", got, len("secondary"))
	}
	if fg.Len() != 2 || fg.Primary() != "primary" {
		t.Errorf("Len() = %d, Primary() = %q", fg.Len(), fg.Primary())
	}
}
