// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o,
// Anthropic Claude, or a local Ollama instance) and exposes a uniform
// request/response call to the travel agent without coupling it to any
// specific SDK.
//
// The agent issues exactly two calls per conversational turn: a structured
// state-merge call ([ResponseFormatJSONObject]) and a free-text reply call.
// Neither is streamed.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by providers when the backend answered
// successfully but produced no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages must
// be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before the
	// messages. Providers without a dedicated system field prepend it as a
	// "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero
	// requests the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// ResponseFormat asks the backend to constrain its output. The zero value
	// is [ResponseFormatText]. Providers that cannot enforce JSON output natively
	// fall back to prompt instructions; callers must still tolerate malformed
	// output (see [CompleteJSON]).
	ResponseFormat ResponseFormat
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// FinishReason reports why generation stopped ("stop", "length", ...).
	FinishReason string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// must return promptly when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error on transport failure, non-2xx status, or when ctx is
	// cancelled before the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata describing what this provider's
	// underlying model supports. The result is constant for the lifetime of
	// the Provider instance.
	Capabilities() ModelCapabilities
}
