package llm_test

import (
	"testing"

	"github.com/MrWong99/tripmate/pkg/provider/llm"
)

func TestCapabilitiesFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		model      string
		wantWindow int
		wantMaxOut int
		wantJSON   bool
		wantKnown  bool
	}{
		{"gpt-4o-mini", 128_000, 16_384, true, true},
		{"GPT-4O", 128_000, 16_384, true, true},
		{"gpt-4", 8_192, 4_096, false, true},
		{"gpt-4-turbo-preview", 128_000, 4_096, true, true},
		{"o1-mini", 128_000, 65_536, false, true},
		{"o3-mini", 200_000, 100_000, true, true},
		{"claude-3-opus-20240229", 200_000, 4_096, false, true},
		{"claude-3-5-haiku-latest", 200_000, 8_192, false, true},
		{"models/gemini-1.5-pro-002", 2_097_152, 8_192, false, true},
		{"gemini-2.0-flash", 1_048_576, 8_192, false, true},
		{"llama3", 128_000, 4_096, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			caps, known := llm.CapabilitiesFor(tt.model)
			if known != tt.wantKnown {
				t.Errorf("known = %v, want %v", known, tt.wantKnown)
			}
			if caps.ContextWindow != tt.wantWindow {
				t.Errorf("ContextWindow = %d, want %d", caps.ContextWindow, tt.wantWindow)
			}
			if caps.MaxOutputTokens != tt.wantMaxOut {
				t.Errorf("MaxOutputTokens = %d, want %d", caps.MaxOutputTokens, tt.wantMaxOut)
			}
			if caps.SupportsJSONMode != tt.wantJSON {
				t.Errorf("SupportsJSONMode = %v, want %v", caps.SupportsJSONMode, tt.wantJSON)
			}
		})
	}
}

func TestClampTokens(t *testing.T) {
	t.Parallel()
	caps := llm.ModelCapabilities{MaxOutputTokens: 4_096}
	for _, tt := range []struct{ in, want int }{
		{0, 0},
		{-1, -1},
		{500, 500},
		{4_096, 4_096},
		{10_000, 4_096},
	} {
		if got := caps.ClampTokens(tt.in); got != tt.want {
			t.Errorf("ClampTokens(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := (llm.ModelCapabilities{}).ClampTokens(9_999); got != 9_999 {
		t.Errorf("unknown limit should not clamp, got %d", got)
	}
}
