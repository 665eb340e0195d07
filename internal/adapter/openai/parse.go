package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")
	looseJSON  = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// ErrNoPayload means a model reply held no JSON item list.
var ErrNoPayload = errors.New("no JSON payload in model response")

// ExtractItems pulls the item list out of a model reply. The reply may be
// pure JSON (an object with "items" or a bare array), a fenced ```json
// block, or prose around the first {...} or [...] span.
func ExtractItems(text string) ([]json.RawMessage, error) {
	text = strings.TrimSpace(text)

	var parsed json.RawMessage
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		var candidate string
		if m := fencedJSON.FindStringSubmatch(text); m != nil {
			candidate = m[1]
		} else if m := looseJSON.FindStringSubmatch(text); m != nil {
			candidate = m[1]
		} else {
			return nil, ErrNoPayload
		}
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPayload, err)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(parsed, &items); err == nil {
		return items, nil
	}
	var wrapper struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(parsed, &wrapper); err != nil || wrapper.Items == nil {
		return nil, fmt.Errorf("%w: response JSON has no items list", ErrNoPayload)
	}
	return wrapper.Items, nil
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
