package llm

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// SystemMessage returns a system-role [Message].
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user-role [Message].
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ResponseFormat selects how the model should shape its output.
type ResponseFormat string

const (
	// ResponseFormatText is free-form text (the default).
	ResponseFormatText ResponseFormat = ""

	// ResponseFormatJSONObject asks for a single JSON object.
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsJSONMode indicates the backend can enforce JSON object output
	// natively instead of relying on prompt instructions.
	SupportsJSONMode bool
}
