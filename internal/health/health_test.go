package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/tripmate/internal/resilience"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, h *Handler, path string) (int, result) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz_AlwaysOK(t *testing.T) {
	t.Parallel()
	h := New(PingChecker("store", stubPinger{err: errors.New("down")}))
	code, body := serve(t, h, "/healthz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantChecks map[string]string
	}{
		{
			name:     "no checkers",
			wantCode: http.StatusOK,
		},
		{
			name: "all pass",
			checkers: []Checker{
				PingChecker("store", stubPinger{}),
				{Name: "llm", Check: func(context.Context) error { return nil }},
			},
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"store": "ok", "llm": "ok"},
		},
		{
			name: "one fails",
			checkers: []Checker{
				PingChecker("store", stubPinger{err: errors.New("connection refused")}),
				{Name: "llm", Check: func(context.Context) error { return nil }},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"store": "fail: connection refused", "llm": "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, body := serve(t, New(tt.checkers...), "/readyz")
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("checks[%q] = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()
	slow := func(context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	h := New(
		Checker{Name: "a", Check: slow},
		Checker{Name: "b", Check: slow},
		Checker{Name: "c", Check: slow},
	)

	start := time.Now()
	code, _ := serve(t, h, "/readyz")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("readyz took %v, checks appear to run sequentially", elapsed)
	}
}

func TestReadyz_CheckerGetsDeadline(t *testing.T) {
	t.Parallel()
	var hasDeadline bool
	h := New(Checker{Name: "store", Check: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}})
	serve(t, h, "/readyz")
	if !hasDeadline {
		t.Error("checker context has no deadline")
	}
}

func TestBreakerChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		states  map[string]resilience.State
		wantErr string
	}{
		{name: "none", states: nil},
		{name: "primary open, fallback closed", states: map[string]resilience.State{
			"openai": resilience.StateOpen, "anthropic": resilience.StateClosed,
		}},
		{name: "half-open counts as available", states: map[string]resilience.State{
			"openai": resilience.StateHalfOpen,
		}},
		{name: "all open", states: map[string]resilience.State{
			"openai": resilience.StateOpen, "anthropic": resilience.StateOpen,
		}, wantErr: "anthropic, openai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := BreakerChecker("llm", func() map[string]resilience.State { return tt.states })
			err := c.Check(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
