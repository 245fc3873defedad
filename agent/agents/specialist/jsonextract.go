package specialist

import (
	"strings"

	"github.com/tidwall/gjson"
)

// extractJSONObject returns the JSON object embedded in model output. The whole text is tried
// first, then the balanced {...} that opens at the first brace. Nothing past that candidate is
// considered, so truncated output never yields a nested fragment.
func extractJSONObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return trimmed, true
	}

	start := strings.IndexByte(trimmed, '{')
	if start < 0 {
		return "", false
	}
	end, ok := matchBrace(trimmed, start)
	if !ok {
		return "", false
	}
	candidate := trimmed[start : end+1]
	if !gjson.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

// matchBrace returns the index of the brace closing the one at start. Braces inside JSON strings
// are ignored.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
