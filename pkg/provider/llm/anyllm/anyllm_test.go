package anyllm

import (
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/tripmate/pkg/provider/llm"
)

// ── buildParams ───────────────────────────────────────────────────────────────

func newTestProvider(model string) *Provider {
	caps, _ := llm.CapabilitiesFor(model)
	return &Provider{name: "test", model: model, caps: caps}
}

func TestBuildParams_Messages(t *testing.T) {
	t.Parallel()
	p := newTestProvider("gpt-4o")
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "be brief",
		Messages: []llm.Message{
			llm.UserMessage("Paris in May"),
			{Role: llm.RoleAssistant, Content: "How many travellers?"},
			llm.UserMessage("two"),
		},
	})
	if params.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", params.Model)
	}
	wantRoles := []string{anyllmlib.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleUser}
	if len(params.Messages) != len(wantRoles) {
		t.Fatalf("messages = %d, want %d", len(params.Messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if params.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, params.Messages[i].Role, want)
		}
	}
	if got := params.Messages[0].ContentString(); got != "be brief" {
		t.Errorf("system content = %q", got)
	}
	if got := params.Messages[2].ContentString(); got != "How many travellers?" {
		t.Errorf("assistant content = %q", got)
	}
}

func TestBuildParams_JSONInstruction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		system string
		want   string
	}{
		{name: "appended", system: "Extract trip details.", want: "Extract trip details.\n\n" + jsonInstruction},
		{name: "alone", want: jsonInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			params := newTestProvider("claude-3-5-haiku-latest").buildParams(llm.CompletionRequest{
				SystemPrompt:   tt.system,
				Messages:       []llm.Message{llm.UserMessage("Rome next week")},
				ResponseFormat: llm.ResponseFormatJSONObject,
			})
			if len(params.Messages) != 2 {
				t.Fatalf("messages = %d, want 2", len(params.Messages))
			}
			if got := params.Messages[0].ContentString(); got != tt.want {
				t.Errorf("system = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildParams_TextWithoutSystemPrompt(t *testing.T) {
	t.Parallel()
	params := newTestProvider("llama3").buildParams(llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage("hi")},
	})
	if len(params.Messages) != 1 || params.Messages[0].Role != llm.RoleUser {
		t.Errorf("messages = %+v, want the user turn only", params.Messages)
	}
}

func TestBuildParams_OptionalFields(t *testing.T) {
	t.Parallel()
	p := newTestProvider("claude-3-5-haiku-latest")

	params := p.buildParams(llm.CompletionRequest{Messages: []llm.Message{llm.UserMessage("hi")}})
	if params.Temperature != nil {
		t.Error("expected nil temperature for zero value")
	}
	if params.MaxTokens != nil {
		t.Error("expected nil max tokens for zero value")
	}

	params = p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{llm.UserMessage("hi")},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 300 {
		t.Errorf("max tokens = %v, want 300", params.MaxTokens)
	}

	params = p.buildParams(llm.CompletionRequest{
		Messages:  []llm.Message{llm.UserMessage("hi")},
		MaxTokens: 50_000,
	})
	if params.MaxTokens == nil || *params.MaxTokens != 8_192 {
		t.Errorf("max tokens = %v, want clamp to 8192", params.MaxTokens)
	}
}

// ── Constructor ───────────────────────────────────────────────────────────────

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, backend, model string
	}{
		{name: "empty backend", model: "gpt-4o"},
		{name: "empty model", backend: "openai"},
		{name: "unsupported backend", backend: "fakecloud", model: "some-model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.backend, tt.model, anyllmlib.WithAPIKey("dummy")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_Backends(t *testing.T) {
	t.Parallel()
	tests := []struct {
		backend string
		model   string
		opts    []anyllmlib.Option
	}{
		{"openai", "gpt-4o", []anyllmlib.Option{anyllmlib.WithAPIKey("sk-test")}},
		{"Anthropic", "claude-3-5-haiku-latest", []anyllmlib.Option{anyllmlib.WithAPIKey("sk-ant-test")}},
		{"ollama", "llama3", nil},
		{"llamacpp", "llama3", nil},
		{"llamafile", "llama3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()
			p, err := New(tt.backend, tt.model, tt.opts...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.model != tt.model {
				t.Errorf("model = %q, want %q", p.model, tt.model)
			}
			if p.Capabilities().SupportsJSONMode {
				t.Error("SupportsJSONMode should be false for the unified backend")
			}
		})
	}
}

// TestNew_OpenAI_MissingAPIKey checks that OpenAI returns an error when no API key is available.
func TestNew_OpenAI_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New("openai", "gpt-4o"); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestBackends(t *testing.T) {
	t.Parallel()
	got := strings.Join(Backends(), ",")
	want := "anthropic,deepseek,gemini,groq,llamacpp,llamafile,mistral,ollama,openai"
	if got != want {
		t.Errorf("Backends() = %s, want %s", got, want)
	}
}
