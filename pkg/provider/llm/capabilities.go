package llm

import "strings"

// DefaultCapabilities is reported for models missing from the family table.
var DefaultCapabilities = ModelCapabilities{
	ContextWindow:   128_000,
	MaxOutputTokens: 4_096,
}

// modelFamily matches model names by prefix, or by substring when contains
// is set. The table is ordered most specific first.
type modelFamily struct {
	match    string
	contains bool
	caps     ModelCapabilities
}

var modelFamilies = []modelFamily{
	{match: "gpt-4o", caps: ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsJSONMode: true}},
	{match: "gpt-4.1", caps: ModelCapabilities{ContextWindow: 1_047_576, MaxOutputTokens: 32_768, SupportsJSONMode: true}},
	{match: "gpt-4-turbo", caps: ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsJSONMode: true}},
	{match: "gpt-4", caps: ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096}},
	{match: "gpt-3.5-turbo", caps: ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsJSONMode: true}},
	{match: "o1-mini", caps: ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536}},
	{match: "o1", caps: ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONMode: true}},
	{match: "o3", caps: ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONMode: true}},
	{match: "o4", caps: ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsJSONMode: true}},
	{match: "claude-3-opus", contains: true, caps: ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 4_096}},
	{match: "claude", caps: ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 8_192}},
	{match: "gemini-1.5-pro", contains: true, caps: ModelCapabilities{ContextWindow: 2_097_152, MaxOutputTokens: 8_192}},
	{match: "gemini", caps: ModelCapabilities{ContextWindow: 1_048_576, MaxOutputTokens: 8_192}},
	{match: "mistral-large", caps: ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}},
	{match: "deepseek", caps: ModelCapabilities{ContextWindow: 64_000, MaxOutputTokens: 8_192}},
}

// CapabilitiesFor looks up model in the family table, ignoring case. known
// is false when [DefaultCapabilities] was returned.
func CapabilitiesFor(model string) (caps ModelCapabilities, known bool) {
	lower := strings.ToLower(model)
	for _, f := range modelFamilies {
		if (f.contains && strings.Contains(lower, f.match)) || strings.HasPrefix(lower, f.match) {
			return f.caps, true
		}
	}
	return DefaultCapabilities, false
}

// ClampTokens limits a requested completion budget to MaxOutputTokens. Zero
// and negative requests are returned unchanged.
func (c ModelCapabilities) ClampTokens(n int) int {
	if n > 0 && c.MaxOutputTokens > 0 && n > c.MaxOutputTokens {
		return c.MaxOutputTokens
	}
	return n
}
