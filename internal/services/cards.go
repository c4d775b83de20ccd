package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"flashgen/internal/models"
)

var (
	validate        = validator.New()
	stripPolicy     = bluemonday.StrictPolicy()
	errNoValidCards = errors.New("response contained no usable flashcards")

	// Only recognised HTML elements count as markup, so text like List<String> survives.
	markupPattern = regexp.MustCompile(`(?i)<\s*/?\s*(a|abbr|b|big|blockquote|br|button|center|code|del|div|em|embed|font|form|h[1-6]|hr|i|iframe|img|input|ins|li|link|mark|meta|object|ol|p|pre|s|script|small|span|strong|style|sub|sup|svg|table|tbody|td|th|thead|tr|u|ul)(\s[^>]*)?/?\s*>`)
)

type cardInput struct {
	Front    string `validate:"required"`
	Back     string `validate:"required"`
	Category string `validate:"required,oneof=Concept Definition Process Example Fact"`
}

// cleanText strips markup when the text contains HTML elements and otherwise
// returns it trimmed and untouched. Sanitiser output is never unescaped.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if !markupPattern.MatchString(s) {
		return s
	}
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}

// NormalizeCards converts provider output into strict flashcards. HTML markup is
// stripped, unknown categories become Concept and cards with a blank side are
// dropped. Every surviving card receives a new id.
func NormalizeCards(raw []RawCard) ([]models.Flashcard, error) {
	cards := make([]models.Flashcard, 0, len(raw))
	var lastErr error

	for i, rc := range raw {
		category, ok := models.ParseCategory(rc.Category)
		if !ok {
			category = models.CategoryConcept
		}

		in := cardInput{
			Front:    cleanText(rc.Front),
			Back:     cleanText(rc.Back),
			Category: string(category),
		}
		if err := validate.Struct(in); err != nil {
			lastErr = fmt.Errorf("card %d: %w", i, err)
			continue
		}

		cards = append(cards, models.Flashcard{
			ID:       uuid.NewString(),
			Front:    in.Front,
			Back:     in.Back,
			Category: category,
		})
	}

	if len(raw) > 0 && len(cards) == 0 {
		return nil, &ParseError{Err: errors.Join(errNoValidCards, lastErr)}
	}
	return cards, nil
}
