package services

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"flashgen/internal/models"
)

const (
	minSentenceLength = 21
	maxHeuristicCards = 7
	minTermLength     = 6
	maxTerms          = 2
	statementPreview  = 30
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	copulaPattern = regexp.MustCompile(`(?i)(\w+)\s+(is|are)\s+`)
)

// HeuristicGenerator builds simulated flashcards from text without calling a
// provider. Only the category is random.
type HeuristicGenerator struct {
	pick func(n int) int
}

func NewHeuristicGenerator() *HeuristicGenerator {
	return &HeuristicGenerator{pick: rand.IntN}
}

// Generate returns at most seven cards. Text without a sentence longer than
// twenty characters yields an empty, non-nil slice.
func (h *HeuristicGenerator) Generate(text string) []models.Flashcard {
	sentences := qualifyingSentences(text)
	categories := models.Categories()

	cards := make([]models.Flashcard, 0, len(sentences))
	for _, sentence := range sentences {
		cards = append(cards, models.Flashcard{
			ID:       uuid.NewString(),
			Front:    questionFor(sentence),
			Back:     strings.TrimSpace(sentence),
			Category: categories[h.pick(len(categories))],
		})
	}
	return cards
}

func qualifyingSentences(text string) []string {
	var out []string
	for _, fragment := range sentenceSplit.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(fragment)) < minSentenceLength {
			continue
		}
		out = append(out, fragment)
		if len(out) == maxHeuristicCards {
			break
		}
	}
	return out
}

func importantTerms(sentence string) []string {
	var terms []string
	for _, word := range strings.Fields(sentence) {
		if utf8.RuneCountInString(word) < minTermLength {
			continue
		}
		terms = append(terms, word)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}

func questionFor(sentence string) string {
	if terms := importantTerms(sentence); len(terms) > 0 {
		return fmt.Sprintf("What is the significance of %s?", strings.Join(terms, " and "))
	}

	if strings.Contains(sentence, "is") || strings.Contains(sentence, "are") {
		return strings.TrimSpace(replaceFirstCopula(sentence)) + "?"
	}

	preview := sentence
	if runes := []rune(sentence); len(runes) > statementPreview {
		preview = string(runes[:statementPreview])
	}
	return fmt.Sprintf("What does the following statement explain: \"%s...\"?", preview)
}

// replaceFirstCopula rewrites the first "<word> is|are " into "What is|are ".
func replaceFirstCopula(sentence string) string {
	loc := copulaPattern.FindStringSubmatchIndex(sentence)
	if loc == nil {
		return sentence
	}
	verb := sentence[loc[4]:loc[5]]
	return sentence[:loc[0]] + "What " + verb + " " + sentence[loc[1]:]
}
