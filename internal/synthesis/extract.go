// Package synthesis turns free-text model output into structured plans:
// a weekly strategic plan and a multi-day daily plan. Extraction is
// best-effort; callers must handle the absent case explicitly.
package synthesis

import (
	"encoding/json"
	"strings"
)

// ExtractObject returns the first balanced {...} span in s.
// The scan is string-aware so braces inside JSON strings don't unbalance
// it. Returns ok=false when no balanced span exists.
func ExtractObject(s string) (string, bool) {
	return extractBalanced(s, '{', '}')
}

// ExtractArray returns the first balanced [...] span in s.
func ExtractArray(s string) (string, bool) {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
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
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Brackets inside strings don't count.
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeObject extracts and parses the first JSON object in s into v.
// It returns false when no parsable object exists; it never fails.
func DecodeObject(s string, v any) bool {
	span, ok := ExtractObject(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), v) == nil
}

// DecodeArray parses the first JSON array in s into v, falling back to
// parsing the whole trimmed response. It returns false when neither
// stage yields a parsable array; it never fails.
func DecodeArray(s string, v any) bool {
	if span, ok := ExtractArray(s); ok {
		if json.Unmarshal([]byte(span), v) == nil {
			return true
		}
	}
	return json.Unmarshal([]byte(strings.TrimSpace(s)), v) == nil
}
