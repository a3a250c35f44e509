package trip

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFences removes markdown code-fence markers the model wraps
// around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} span in s.
// Used as a fallback when the model surrounds the JSON with prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// decodeModelJSON parses model output into out, tolerating code fences and
// surrounding prose.
func decodeModelJSON(raw string, out any) error {
	cleaned := stripCodeFences(raw)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	obj, ok := extractJSONObject(cleaned)
	if !ok {
		return fmt.Errorf("no JSON object found in model output")
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("parse extracted JSON: %w", err)
	}
	return nil
}
