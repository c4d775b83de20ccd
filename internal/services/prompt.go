package services

import (
	"fmt"
	"strings"

	"flashgen/internal/models"
)

const systemPrompt = "You are an expert educator who creates high-quality flashcards for effective learning. Always respond with properly formatted JSON."

func buildPrompt(text string) string {
	names := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}
	return fmt.Sprintf(`Create flashcards from the following text.
For each important concept or fact, create a flashcard with a question on the front and answer on the back.
Return ONLY a JSON array with this format:
[{"front": "...", "back": "...", "category": "..."}]
Categories should be one of: %s.
Do not include any explanation or other text outside the JSON array.

Text to create flashcards from:
%s`, strings.Join(names, ", "), text)
}
