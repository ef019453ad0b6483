package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RawReplyKey is the key under which [CompleteJSON] stores the model's raw
// text when its output cannot be decoded as a JSON object.
const RawReplyKey = "reply"

// CompleteJSON sends req with [ResponseFormatJSONObject] and decodes the reply
// into a generic object.
//
// Transport and API errors are returned unchanged. Output that does not decode
// as a JSON object is not an error: the raw text is returned as
// {"reply": rawText} so callers can treat it as "nothing structured learned".
func CompleteJSON(ctx context.Context, p Provider, req CompletionRequest) (map[string]any, error) {
	req.ResponseFormat = ResponseFormatJSONObject
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("llm: complete json: %w", ErrEmptyResponse)
	}
	return ParseJSONObject(resp.Content), nil
}

// ParseJSONObject decodes text as a JSON object. Markdown code fences and any
// prose surrounding the outermost {...} pair are tolerated. When no object can
// be decoded the result is {"reply": text}.
func ParseJSONObject(text string) map[string]any {
	candidate := strings.TrimSpace(text)
	candidate = strings.TrimPrefix(candidate, "```json")
	candidate = strings.TrimPrefix(candidate, "```")
	candidate = strings.TrimSuffix(candidate, "```")
	candidate = strings.TrimSpace(candidate)

	if obj, ok := decodeObject(candidate); ok {
		return obj
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start >= 0 && end > start {
		if obj, ok := decodeObject(candidate[start : end+1]); ok {
			return obj
		}
	}
	return map[string]any{RawReplyKey: text}
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
