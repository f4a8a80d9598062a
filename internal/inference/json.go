package inference

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencedJSON matches a ```json ... ``` (or bare ```) code fence and
// captures its body. Models frequently wrap JSON output this way.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON strips a markdown code fence from a model response,
// returning the inner payload. Responses without a fence are returned
// trimmed and unchanged.
func ExtractJSON(response string) string {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// DecodeJSON extracts the JSON payload from a model response and
// unmarshals it into out. A parse failure returns an error describing
// the malformed content so the caller can trigger its fallback.
func DecodeJSON(response string, out interface{}) error {
	payload := ExtractJSON(response)
	if payload == "" {
		return fmt.Errorf("empty response from model")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("invalid JSON in model response: %w", err)
	}
	return nil
}
