package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camden-git/loreboardbackend/models"
)

// ParseAttributes decodes a JSON object answer into attributes of type t.
// Keys that are not fields of t are dropped. With fillMissing every field
// is present in the result, defaulting to "".
func ParseAttributes(raw string, t models.EntityType, fillMissing bool) (models.Attributes, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	attrs := make(models.Attributes)
	for key, value := range obj {
		field := strings.ToLower(strings.TrimSpace(key))
		if !t.HasField(field) {
			continue
		}
		attrs[field] = stringify(value)
	}

	if fillMissing {
		for _, f := range t.Fields() {
			if _, ok := attrs[f]; !ok {
				attrs[f] = ""
			}
		}
	}
	return attrs, nil
}

// stringify flattens the loosely typed values models sometimes return.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
