package searchengine

import (
	"context"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type answerRequest struct {
	Query                answerQuery          `json:"query"`
	AnswerGenerationSpec answerGenerationSpec `json:"answerGenerationSpec"`
}

type answerQuery struct {
	Text string `json:"text"`
}

type answerGenerationSpec struct {
	IncludeCitations bool        `json:"includeCitations"`
	PromptSpec       *promptSpec `json:"promptSpec,omitempty"`
}

type promptSpec struct {
	Preamble string `json:"preamble"`
}

type answerResponse struct {
	Answer struct {
		AnswerText string            `json:"answerText"`
		References []answerReference `json:"references"`
	} `json:"answer"`
}

type answerReference struct {
	UnstructuredDocumentInfo *documentMetadata `json:"unstructuredDocumentInfo"`
	ChunkInfo                *struct {
		DocumentMetadata *documentMetadata `json:"documentMetadata"`
	} `json:"chunkInfo"`
}

type documentMetadata struct {
	Document string `json:"document"`
	URI      string `json:"uri"`
	Title    string `json:"title"`
}

func (c *Client) GenerateAnswer(ctx context.Context, query, preamble string) (*domain.QueryResult, error) {
	req := answerRequest{
		Query:                answerQuery{Text: query},
		AnswerGenerationSpec: answerGenerationSpec{IncludeCitations: true},
	}
	if strings.TrimSpace(preamble) != "" {
		req.AnswerGenerationSpec.PromptSpec = &promptSpec{Preamble: preamble}
	}

	var resp answerResponse
	if err := c.doJSON(ctx, "POST", c.answerPath(), req, &resp, "answer"); err != nil {
		return nil, err
	}

	sources := make([]domain.Source, 0, len(resp.Answer.References))
	for _, ref := range resp.Answer.References {
		meta := ref.metadata()
		if meta == nil {
			continue
		}
		sources = append(sources, domain.Source{Title: meta.Title, URI: meta.URI})
	}
	return &domain.QueryResult{
		Answer:  strings.TrimSpace(resp.Answer.AnswerText),
		Sources: sources,
	}, nil
}

func (r answerReference) metadata() *documentMetadata {
	if r.UnstructuredDocumentInfo != nil {
		return r.UnstructuredDocumentInfo
	}
	if r.ChunkInfo != nil {
		return r.ChunkInfo.DocumentMetadata
	}
	return nil
}
