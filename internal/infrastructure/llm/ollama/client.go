package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/llm"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type Summarizer struct {
	client      *Client
	instruction string
}

func NewSummarizer(client *Client, instruction string) *Summarizer {
	return &Summarizer{client: client, instruction: instruction}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.client.generateText(ctx, llm.BuildSummaryPrompt(s.instruction, text))
}

type TitleGenerator struct {
	client      *Client
	instruction string
}

func NewTitleGenerator(client *Client, instruction string) *TitleGenerator {
	return &TitleGenerator{client: client, instruction: instruction}
}

func (g *TitleGenerator) GenerateTitle(ctx context.Context, query string) (string, error) {
	return g.client.generateText(ctx, llm.BuildTitlePrompt(g.instruction, query))
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.MapHTTPError("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
