package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tripmate/pkg/provider/llm"
	"github.com/MrWong99/tripmate/pkg/provider/llm/mock"
)

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{
			name: "plain object",
			in:   `{"destination":"Paris","partySize":2}`,
			want: map[string]any{"destination": "Paris", "partySize": float64(2)},
		},
		{
			name: "fenced",
			in:   "```json\n{\"budget\":\"1000 EUR\"}\n```",
			want: map[string]any{"budget": "1000 EUR"},
		},
		{
			name: "surrounded by prose",
			in:   `Sure! Here you go: {"dates":"2026-05-01 to 2026-05-07"} Hope that helps.`,
			want: map[string]any{"dates": "2026-05-01 to 2026-05-07"},
		},
		{
			name: "not json",
			in:   "I could not figure that out",
			want: map[string]any{"reply": "I could not figure that out"},
		},
		{
			name: "json array",
			in:   `["Paris"]`,
			want: map[string]any{"reply": `["Paris"]`},
		},
		{
			name: "null",
			in:   "null",
			want: map[string]any{"reply": "null"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llm.ParseJSONObject(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseJSONObject mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompleteJSON_SetsFormat(t *testing.T) {
	p := &mock.Provider{Responses: []mock.Response{{Content: `{"destination":"Rome"}`}}}

	got, err := llm.CompleteJSON(context.Background(), p, llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage("Rome please")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["destination"] != "Rome" {
		t.Errorf("destination = %v, want Rome", got["destination"])
	}
	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Req.ResponseFormat != llm.ResponseFormatJSONObject {
		t.Errorf("ResponseFormat = %q, want json_object", calls[0].Req.ResponseFormat)
	}
}

func TestCompleteJSON_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	p := &mock.Provider{CompleteErr: boom}

	_, err := llm.CompleteJSON(context.Background(), p, llm.CompletionRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCompleteJSON_NilResponse(t *testing.T) {
	p := &mock.Provider{}

	_, err := llm.CompleteJSON(context.Background(), p, llm.CompletionRequest{})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
