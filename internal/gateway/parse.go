package gateway

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseAIResponse extracts a JSON object from model output. A fenced code block wins
// over bare JSON; anything unparseable is wrapped as {"content": text, "type": "text"}.
// A top-level array is returned under the "items" key.
func ParseAIResponse(text string) map[string]any {
	if match := fencedBlock.FindStringSubmatch(text); match != nil {
		if parsed, ok := decodeJSON(strings.TrimSpace(match[1])); ok {
			return parsed
		}
		return textResult(text)
	}

	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "{") || strings.HasPrefix(clean, "[") {
		if parsed, ok := decodeJSON(clean); ok {
			return parsed
		}
	}
	return textResult(text)
}

func decodeJSON(raw string) (map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case []any:
		return map[string]any{"items": v}, true
	default:
		return nil, false
	}
}

func textResult(text string) map[string]any {
	return map[string]any{"content": text, "type": "text"}
}

// IsTextFallback reports whether the parsed value is the plain-text wrapper.
func IsTextFallback(parsed map[string]any) bool {
	t, _ := parsed["type"].(string)
	_, hasContent := parsed["content"]
	return t == "text" && hasContent && len(parsed) == 2
}
