package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known LLM provider names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// envRef matches ${NAME} references. Bare $NAME is left alone so secrets
// containing a dollar sign survive expansion.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// ${NAME} references are replaced with the value of the environment variable
// NAME before decoding; unset variables expand to the empty string.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	raw = ExpandEnv(raw, os.LookupEnv)

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandEnv replaces every ${NAME} in b using lookup.
func ExpandEnv(b []byte, lookup func(string) (string, bool)) []byte {
	return envRef.ReplaceAllFunc(b, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		v, _ := lookup(name)
		return []byte(v)
	})
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Providers
	if cfg.Providers.LLM.Name == "" {
		if len(cfg.Providers.LLMFallbacks) > 0 {
			errs = append(errs, errors.New("providers.llm_fallbacks is set but providers.llm is not configured"))
		} else {
			slog.Warn("no LLM provider configured; every turn will be answered by the rule-based fallback")
		}
	} else {
		errs = append(errs, validateProvider("providers.llm", cfg.Providers.LLM)...)
	}
	for i, fb := range cfg.Providers.LLMFallbacks {
		errs = append(errs, validateProvider(fmt.Sprintf("providers.llm_fallbacks[%d]", i), fb)...)
	}

	// Store
	st := cfg.Store
	if st.Backend != "" && !st.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: memory, postgres, redis, sqlite", st.Backend))
	}
	if st.TTL < 0 {
		errs = append(errs, fmt.Errorf("store.ttl %s must not be negative", st.TTL))
	}
	switch st.Backend {
	case StorePostgres:
		if st.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required when backend is postgres"))
		}
	case StoreRedis:
		if st.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required when backend is redis"))
		}
	}

	// Agent
	ag := cfg.Agent
	if ag.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("agent.request_timeout %s must not be negative", ag.RequestTimeout))
	}
	if ag.MergeTemperature < 0 || ag.MergeTemperature > 2 {
		errs = append(errs, fmt.Errorf("agent.merge_temperature %.2f is out of range [0, 2]", ag.MergeTemperature))
	}
	if ag.ReplyTemperature < 0 || ag.ReplyTemperature > 2 {
		errs = append(errs, fmt.Errorf("agent.reply_temperature %.2f is out of range [0, 2]", ag.ReplyTemperature))
	}
	if ag.MaxReplyTokens < 0 {
		errs = append(errs, fmt.Errorf("agent.max_reply_tokens %d must not be negative", ag.MaxReplyTokens))
	}

	// Affiliates
	idsSeen := make(map[string]int, len(cfg.Affiliates.Providers))
	for i, p := range cfg.Affiliates.Providers {
		prefix := fmt.Sprintf("affiliates.providers[%d]", i)
		if err := p.Meta.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
		if p.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required", prefix))
		}
		if p.ID != "" {
			if prev, ok := idsSeen[p.ID]; ok {
				errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of affiliates.providers[%d]", prefix, p.ID, prev))
			}
			idsSeen[p.ID] = i
		}
	}

	// Knowledge
	for kw, fact := range cfg.Knowledge.Facts {
		if kw == "" || fact == "" {
			errs = append(errs, fmt.Errorf("knowledge.facts: keyword %q needs a non-empty fact", kw))
		}
	}

	return errors.Join(errs...)
}

func validateProvider(prefix string, e ProviderEntry) []error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	} else {
		validateProviderName(e.Name)
	}
	if e.Model == "" {
		errs = append(errs, fmt.Errorf("%s.model is required", prefix))
	}
	if e.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout %s must not be negative", prefix, e.Timeout))
	}
	return errs
}

// validateProviderName logs a warning if name is not found in
// [ValidProviderNames].
func validateProviderName(name string) {
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", "llm",
		"name", name,
		"known", ValidProviderNames,
	)
}
