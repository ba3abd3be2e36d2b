package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts holds the model instructions and the example queries offered to users.
type Prompts struct {
	AnswerPreamble     string   `yaml:"answer_preamble"`
	TitleInstruction   string   `yaml:"title_instruction"`
	SummaryInstruction string   `yaml:"summary_instruction"`
	SampleQueries      []string `yaml:"sample_queries"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		AnswerPreamble: "Answer using only the indexed documents. Be precise, quote figures exactly as " +
			"they appear, and say so when the documents do not contain the answer.",
		TitleInstruction: "Give me one concise pdf title regarding the following query: {query} " +
			"without mentioning here are some options or anything like that, and do NOT add any hashtags.",
		SummaryInstruction: "Summarize the following document. Start with a one-paragraph overview, then list " +
			"the key facts and figures as short bullet points.",
		SampleQueries: []string{
			"Provide a detailed summary of the latest annual report.",
			"What was the loan to deposit ratio in Q4 2023?",
			"What were the key highlights of Q3 2021?",
			"Summarize the financials for the entire 2023 year.",
		},
	}
}

// LoadPrompts reads a YAML prompts file over the defaults. Keys absent from the
// file keep their default value. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if strings.TrimSpace(path) == "" {
		return prompts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts file: %w", err)
	}

	if v := strings.TrimSpace(override.AnswerPreamble); v != "" {
		prompts.AnswerPreamble = v
	}
	if v := strings.TrimSpace(override.TitleInstruction); v != "" {
		prompts.TitleInstruction = v
	}
	if v := strings.TrimSpace(override.SummaryInstruction); v != "" {
		prompts.SummaryInstruction = v
	}
	if queries := cleanQueries(override.SampleQueries); len(queries) > 0 {
		prompts.SampleQueries = queries
	}
	return prompts, nil
}

func cleanQueries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
