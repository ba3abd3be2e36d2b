package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

const completionResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-test",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Loan Ratios 2023 "}}]
}`

func TestTitleGeneratorCallsChatCompletions(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse))
	}))
	defer server.Close()

	client, err := New(server.URL+"/v1/", "sk-test", "gpt-test", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	title, err := NewTitleGenerator(client, "Title for: {query}").GenerateTitle(context.Background(), "loan ratio")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Loan Ratios 2023" {
		t.Fatalf("unexpected title: %q", title)
	}
	if payload["model"] != "gpt-test" {
		t.Fatalf("unexpected model: %v", payload["model"])
	}
	messages, _ := payload["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %v", payload["messages"])
	}
	msg, _ := messages[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "Title for: loan ratio" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestSummarizerMapsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := New(server.URL+"/v1/", "sk-bad", "gpt-test", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = NewSummarizer(client, "Summarize.").Summarize(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized kind, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", " ", "gpt-test", nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
