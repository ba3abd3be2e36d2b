package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

func TestReportExportExplicitContent(t *testing.T) {
	assembler := &assemblerFake{}
	titles := &titleGeneratorFake{title: "## \"Quarterly Ratio Overview\"\nalternative"}
	uc := NewReportUseCase(assembler, titles, NewCatalogUseCase(&catalogSourceFake{}, nil), nil, 3)
	uc.now = fixedClock

	artifact, err := uc.Export(context.Background(), ports.ExportRequest{
		Query:   "ratio?",
		Answer:  "80%",
		Sources: []domain.Source{{Title: "Q4", URI: "gs://b/q4.pdf"}},
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if titles.input != "ratio?" {
		t.Fatalf("expected title generated from query, got %q", titles.input)
	}
	if assembler.req.Title != "Quarterly Ratio Overview" {
		t.Fatalf("unexpected cleaned title %q", assembler.req.Title)
	}
	if !assembler.req.GeneratedAt.Equal(fixedNow) || assembler.req.MaxSources != 3 {
		t.Fatalf("unexpected request %+v", assembler.req)
	}
	if artifact.Title != "Quarterly Ratio Overview" {
		t.Fatalf("unexpected artifact title %q", artifact.Title)
	}
}

func TestReportExportUsesGivenTitleAndMaxSources(t *testing.T) {
	assembler := &assemblerFake{}
	titles := &titleGeneratorFake{title: "unused"}
	uc := NewReportUseCase(assembler, titles, nil, nil, 0)

	_, err := uc.Export(context.Background(), ports.ExportRequest{Title: "Given", Answer: "A", MaxSources: 5})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if assembler.req.Title != "Given" || assembler.req.MaxSources != 5 {
		t.Fatalf("unexpected request %+v", assembler.req)
	}
	if titles.input != "" {
		t.Fatalf("title generator must not be called when a title is given")
	}
}

func TestReportExportFallsBackOnTitleFailure(t *testing.T) {
	assembler := &assemblerFake{}
	uc := NewReportUseCase(assembler, &titleGeneratorFake{err: errors.New("llm down")}, nil, nil, 3)

	if _, err := uc.Export(context.Background(), ports.ExportRequest{Query: "q", Answer: "A"}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if assembler.req.Title != domain.DefaultReportTitle {
		t.Fatalf("expected default title, got %q", assembler.req.Title)
	}
}

func TestReportExportFromSession(t *testing.T) {
	sessions := newSessionStoreFake()
	s, _ := domain.NewSession("s-1").Begin(domain.ModeQuery, fixedNow)
	s, _ = s.FinishQuery("what changed?", domain.QueryResult{
		Answer:  "Deposits grew.",
		Sources: []domain.Source{{Title: "Q4 Deck"}, {Title: "Unlisted"}},
	}, fixedNow)
	sessions.sessions["s-1"] = s
	source := &catalogSourceFake{records: []domain.DocumentRecord{{ID: "1", Title: "Q4 Deck", URI: "gs://b/q4.pdf"}}}
	assembler := &assemblerFake{}
	uc := NewReportUseCase(assembler, nil, NewCatalogUseCase(source, nil), sessions, 3)

	if _, err := uc.Export(context.Background(), ports.ExportRequest{SessionID: "s-1"}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if assembler.req.Query != "what changed?" || assembler.req.Answer != "Deposits grew." {
		t.Fatalf("unexpected content %+v", assembler.req)
	}
	if assembler.req.Sources[0].URI != "gs://b/q4.pdf" || assembler.req.Sources[1].URI != "" {
		t.Fatalf("unexpected resolved sources %+v", assembler.req.Sources)
	}
	if s.Result.Sources[0].URI != "" {
		t.Fatalf("session sources must not be mutated")
	}
}

func TestReportExportLinksTitleOnlySources(t *testing.T) {
	source := &catalogSourceFake{records: []domain.DocumentRecord{
		{ID: "1", Title: "Q1 Report", URI: "gs://bkt/q1-report.pdf"},
		{ID: "2", Title: "Q2 Report", URI: "gs://bkt/q2-report.pdf"},
	}}
	assembler := &assemblerFake{}
	uc := NewReportUseCase(assembler, nil, NewCatalogUseCase(source, nil), nil, 3)

	_, err := uc.Export(context.Background(), ports.ExportRequest{
		Title:  "Given",
		Answer: "A",
		Sources: []domain.Source{
			{Title: " Q1 Report "},
			{Title: "Q2 Report", URI: "gs://other/kept.pdf"},
		},
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one catalog lookup, got %d", source.calls)
	}
	if got := assembler.req.Sources[0].URI; got != "gs://bkt/q1-report.pdf" {
		t.Fatalf("expected catalog uri for title-only source, got %q", got)
	}
	if got := assembler.req.Sources[1].URI; got != "gs://other/kept.pdf" {
		t.Fatalf("explicit uri must be kept, got %q", got)
	}
}

func TestReportExportSkipsLookupWhenURIsPresent(t *testing.T) {
	source := &catalogSourceFake{}
	uc := NewReportUseCase(&assemblerFake{}, nil, NewCatalogUseCase(source, nil), nil, 3)

	_, err := uc.Export(context.Background(), ports.ExportRequest{
		Title:   "Given",
		Answer:  "A",
		Sources: []domain.Source{{Title: "Q1", URI: "gs://bkt/q1.pdf"}},
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if source.calls != 0 {
		t.Fatalf("catalog must not be listed when every source has a uri")
	}
}

func TestReportExportWithoutContent(t *testing.T) {
	uc := NewReportUseCase(&assemblerFake{}, nil, nil, newSessionStoreFake(), 3)

	_, err := uc.Export(context.Background(), ports.ExportRequest{SessionID: "empty"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = uc.Export(context.Background(), ports.ExportRequest{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReportExportPropagatesGenerationFailure(t *testing.T) {
	failure := domain.WrapError(domain.ErrArtifactGeneration, "render report", errors.New("bad logo"))
	uc := NewReportUseCase(&assemblerFake{err: failure}, nil, nil, nil, 3)

	artifact, err := uc.Export(context.Background(), ports.ExportRequest{Answer: "A"})
	if !domain.IsKind(err, domain.ErrArtifactGeneration) {
		t.Fatalf("expected ErrArtifactGeneration, got %v", err)
	}
	if artifact != nil {
		t.Fatalf("no artifact must be returned on failure")
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"# Title":            "Title",
		"  **Bold Title**  ": "Bold Title",
		"'Quoted'":           "Quoted",
		"First\nSecond":      "First",
		"":                   "",
	}
	for in, want := range cases {
		if got := cleanTitle(in); got != want {
			t.Fatalf("cleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
