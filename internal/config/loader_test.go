package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/tripmate/internal/config"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		yaml    string
		wantErr []string // substrings; empty means valid
	}{
		{
			name: "invalid log level",
			yaml: "server:\n  log_level: verbose\n",
			wantErr: []string{"log_level"},
		},
		{
			name: "tls without key",
			yaml: "server:\n  tls:\n    cert_file: cert.pem\n",
			wantErr: []string{"server.tls"},
		},
		{
			name: "fallbacks without primary",
			yaml: `
providers:
  llm_fallbacks:
    - name: ollama
      model: llama3
`,
			wantErr: []string{"providers.llm is not configured"},
		},
		{
			name: "provider without model",
			yaml: `
providers:
  llm:
    name: openai
  llm_fallbacks:
    - model: claude
`,
			wantErr: []string{"providers.llm.model is required", "providers.llm_fallbacks[0].name is required"},
		},
		{
			name: "invalid backend",
			yaml: "store:\n  backend: mongo\n",
			wantErr: []string{"store.backend"},
		},
		{
			name: "postgres requires dsn",
			yaml: "store:\n  backend: postgres\n",
			wantErr: []string{"postgres_dsn"},
		},
		{
			name: "redis requires addr",
			yaml: "store:\n  backend: redis\n",
			wantErr: []string{"store.redis.addr"},
		},
		{
			name: "negative ttl",
			yaml: "store:\n  ttl: -1h\n",
			wantErr: []string{"store.ttl"},
		},
		{
			name: "temperature out of range",
			yaml: "agent:\n  reply_temperature: 3.5\n",
			wantErr: []string{"agent.reply_temperature"},
		},
		{
			name: "affiliate provider missing fields",
			yaml: `
affiliates:
  providers:
    - id: x
      category: cruise
`,
			wantErr: []string{"affiliates.providers[0]", "name is required", "category", "base_url is required"},
		},
		{
			name: "duplicate affiliate ids",
			yaml: `
affiliates:
  providers:
    - {id: a, name: A, category: hotel, cta_label: Go, base_url: "https://a.example"}
    - {id: a, name: B, category: hotel, cta_label: Go, base_url: "https://b.example"}
`,
			wantErr: []string{"duplicate"},
		},
		{
			name: "empty knowledge fact",
			yaml: "knowledge:\n  facts:\n    porto: \"\"\n",
			wantErr: []string{"knowledge.facts"},
		},
		{
			name: "sqlite backend needs nothing",
			yaml: "store:\n  backend: sqlite\n",
		},
		{
			name: "ollama without key",
			yaml: `
providers:
  llm:
    name: ollama
    model: llama3
    base_url: http://localhost:11434
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should mention %q, got: %v", want, err)
				}
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
store:
  backend: postgres
agent:
  max_reply_tokens: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 joined errors, got %d: %v", len(lines), err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tripmate.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_addr: \":7000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !os.IsNotExist(err) && !strings.Contains(err.Error(), "open") {
		t.Errorf("error should report the open failure, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"openai", "anthropic", "ollama", "gemini"} {
		found := false
		for _, n := range config.ValidProviderNames {
			if n == name {
				found = true
			}
		}
		if !found {
			t.Errorf("ValidProviderNames should contain %q", name)
		}
	}
}
