package transport

import (
	"encoding/json"
	"strings"
)

// Normalize extracts the usable value from a tool result's content. The
// service nests JSON-as-text one or two levels deep depending on tool and
// transport, so this is a best-effort fallback chain that never fails: worst
// case the caller gets back a string to interpret itself.
//
// A content array is flattened to newline-joined text (elements may be plain
// strings or objects carrying a "text" field). If the joined text looks like
// JSON it is parsed; otherwise it is returned as-is. Non-array content is
// already structured and passes through unchanged.
func Normalize(content any) any {
	items, ok := content.([]any)
	if !ok {
		return content
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, itemText(item))
	}
	text := strings.Join(parts, "\n")

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return text
}

func itemText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text
		}
	}
	// Unknown element shape; render it as JSON rather than dropping it.
	buf, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(buf)
}
