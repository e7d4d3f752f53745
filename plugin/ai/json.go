package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON locates the JSON document inside a model reply, stripping
// markdown code fences and any surrounding prose. Returns an empty string
// when no JSON object or array can be found.
func ExtractJSON(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closing := byte('}')
	if text[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(text, closing)
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

// ParseJSONResponse unmarshals the JSON document embedded in a model reply
// into v. Model replies wrap JSON in markdown fences or prose often enough
// that plain unmarshalling is attempted last.
func ParseJSONResponse(text string, v any) error {
	doc := ExtractJSON(text)
	if doc != "" {
		if err := json.Unmarshal([]byte(doc), v); err == nil {
			return nil
		}
	}
	return json.Unmarshal([]byte(strings.TrimSpace(text)), v)
}
