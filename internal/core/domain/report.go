package domain

import "time"

const (
	DefaultMaxSources     = 3
	NoSourcesPlaceholder  = "No sources available."
	UnknownDocumentLabel  = "Unknown Document"
	DefaultReportTitle    = "Summary Response"
	DefaultReportFilename = "summary_response.pdf"
)

// ReportRequest describes either a query/answer report or a document/summary report.
// Query and DocumentName are optional; when DocumentName is set the body is labelled
// as a document summary.
type ReportRequest struct {
	Title        string
	GeneratedAt  time.Time
	Query        string
	DocumentName string
	Answer       string
	Sources      []Source
	MaxSources   int
}

type ReportSection struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Citation is a numbered source line. URI may be empty.
type Citation struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	URI    string `json:"uri,omitempty"`
}

// ReportLayout is the render-ready, already sanitised content of a report.
type ReportLayout struct {
	Title       string          `json:"title"`
	Timestamp   string          `json:"timestamp"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
	Citations   []Citation      `json:"citations"`
	// Placeholder replaces the citation list when there are no sources.
	Placeholder string `json:"placeholder,omitempty"`
}

type ReportArtifact struct {
	Title        string          `json:"title"`
	GeneratedAt  time.Time       `json:"generated_at"`
	BodySections []ReportSection `json:"body_sections"`
	Filename     string          `json:"filename"`
	ContentType  string          `json:"content_type"`
	Content      []byte          `json:"-"`
}
