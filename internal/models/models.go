package models

import "strings"

// Category classifies what kind of knowledge a flashcard tests.
type Category string

const (
	CategoryConcept    Category = "Concept"
	CategoryDefinition Category = "Definition"
	CategoryProcess    Category = "Process"
	CategoryExample    Category = "Example"
	CategoryFact       Category = "Fact"
)

var categories = []Category{
	CategoryConcept,
	CategoryDefinition,
	CategoryProcess,
	CategoryExample,
	CategoryFact,
}

// Categories returns the closed set of categories in prompt order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the five known categories (exact match).
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches raw against the known categories ignoring case and
// surrounding whitespace.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, known := range categories {
		if strings.EqualFold(raw, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Mode tags whether a result came from a live provider or the offline heuristic.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeFallback Mode = "fallback"
)

// Flashcard is a single generated study card. IDs are unique within one
// generation batch.
type Flashcard struct {
	ID       string   `json:"id"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Category Category `json:"category"`
}
