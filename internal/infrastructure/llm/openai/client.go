// Package openai provides summaries and report titles through an OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/llm"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/resilience"
)

type Client struct {
	client   openai.Client
	model    string
	executor *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing openai api key")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &Client{
		client:   openai.NewClient(opts...),
		model:    model,
		executor: executor,
	}, nil
}

type Summarizer struct {
	client      *Client
	instruction string
}

func NewSummarizer(client *Client, instruction string) *Summarizer {
	return &Summarizer{client: client, instruction: instruction}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.client.complete(ctx, llm.BuildSummaryPrompt(s.instruction, text))
}

type TitleGenerator struct {
	client      *Client
	instruction string
}

func NewTitleGenerator(client *Client, instruction string) *TitleGenerator {
	return &TitleGenerator{client: client, instruction: instruction}
}

func (g *TitleGenerator) GenerateTitle(ctx context.Context, query string) (string, error) {
	return g.client.complete(ctx, llm.BuildTitlePrompt(g.instruction, query))
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	var content string
	call := func(callCtx context.Context) error {
		resp, err := c.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			return toStatusError(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("openai chat completion: empty choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat_completion", call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.MapHTTPError("openai chat completion", err)
	}
	return strings.TrimSpace(content), nil
}

func toStatusError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  "chat_completion",
			StatusCode: apiErr.StatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
			Body:       apiErr.Message,
		}
	}
	return fmt.Errorf("openai chat completion request: %w", err)
}
