package llm

import (
	"encoding/json"
	"strings"
)

// Models sometimes wrap JSON output in markdown fences even when asked
// not to. StripFences removes them so every consumer shares one
// fallback policy instead of re-implementing it per call site.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSON parses structured model output into v after stripping any
// markdown fences. Callers that must not fail on malformed output treat
// an error here as the signal to degrade to a raw-text record.
func DecodeJSON(raw string, v any) error {
	return json.Unmarshal([]byte(StripFences(raw)), v)
}
