package services

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// RawCard is a card object as the provider returned it, before normalization.
type RawCard struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	Category string `json:"category"`
}

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// extractJSONArray returns the span from the first '[' to the last ']' so
// prose or markdown fences around the array are ignored.
func extractJSONArray(content string) (string, bool) {
	match := arrayPattern.FindString(content)
	if match == "" {
		return strings.TrimSpace(content), false
	}
	return match, true
}

// ParseCards extracts the JSON card array from a model reply.
func ParseCards(raw string) ([]RawCard, error) {
	payload, _ := extractJSONArray(raw)
	if payload == "" {
		return nil, &ParseError{Raw: excerpt(raw), Err: errors.New("empty response")}
	}

	var cards []RawCard
	if err := json.Unmarshal([]byte(payload), &cards); err != nil {
		return nil, &ParseError{Raw: excerpt(raw), Err: err}
	}
	return cards, nil
}

func excerpt(s string) string {
	const limit = 200
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
