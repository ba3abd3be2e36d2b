package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

func TestSummarizerBuildsDocumentPrompt(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  short summary \n"}`))
	}))
	defer server.Close()

	summarizer := NewSummarizer(New(server.URL, "gen", nil), "Summarize the document.")
	summary, err := summarizer.Summarize(context.Background(), "quarterly numbers")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "short summary" {
		t.Fatalf("unexpected summary: %q", summary)
	}
	prompt, _ := captured["prompt"].(string)
	if !strings.HasPrefix(prompt, "Summarize the document.") || !strings.Contains(prompt, "quarterly numbers") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
	if captured["model"] != "gen" || captured["stream"] != false {
		t.Fatalf("unexpected payload: %v", captured)
	}
}

func TestTitleGeneratorSubstitutesQuery(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		prompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"Loan Ratios 2023"}`))
	}))
	defer server.Close()

	gen := NewTitleGenerator(New(server.URL, "gen", nil), "Give me one concise pdf title regarding: {query}")
	title, err := gen.GenerateTitle(context.Background(), " loan ratio ")
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Loan Ratios 2023" {
		t.Fatalf("unexpected title: %q", title)
	}
	if prompt != "Give me one concise pdf title regarding: loan ratio" {
		t.Fatalf("unexpected prompt: %q", prompt)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	summarizer := NewSummarizer(New(server.URL, "gen", nil), "Summarize.")
	_, err := summarizer.Summarize(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error kind, got %v", err)
	}
}
