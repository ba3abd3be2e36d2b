// Package llm holds prompt construction shared by the language model providers.
package llm

import (
	"fmt"
	"strings"
)

const MaxSummaryRunes = 16000

// QueryPlaceholder in a title instruction is replaced with the user query.
const QueryPlaceholder = "{query}"

func BuildSummaryPrompt(instruction, text string) string {
	snippet := text
	if runes := []rune(snippet); len(runes) > MaxSummaryRunes {
		snippet = string(runes[:MaxSummaryRunes])
	}
	return fmt.Sprintf("%s\n\nDocument:\n%s\n", strings.TrimSpace(instruction), snippet)
}

func BuildTitlePrompt(instruction, query string) string {
	instruction = strings.TrimSpace(instruction)
	query = strings.TrimSpace(query)
	if strings.Contains(instruction, QueryPlaceholder) {
		return strings.ReplaceAll(instruction, QueryPlaceholder, query)
	}
	return fmt.Sprintf("%s\n\nQuery:\n%s\n", instruction, query)
}
