// Package pdf renders report layouts as single-column A4 PDF documents.
package pdf

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

//go:embed assets/logo.png
var defaultLogo []byte

const logoName = "report-logo"

type Options struct {
	// Logo is a PNG image placed in the header. Nil uses the bundled logo.
	Logo []byte
	// Uncompressed disables stream compression. Used by tests to inspect content.
	Uncompressed bool
}

type Renderer struct {
	logo     []byte
	compress bool
}

func NewRenderer(opts Options) *Renderer {
	logo := opts.Logo
	if logo == nil {
		logo = defaultLogo
	}
	return &Renderer{logo: logo, compress: !opts.Uncompressed}
}

func (r *Renderer) Render(layout domain.ReportLayout) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(layout.GeneratedAt)
	doc.SetModificationDate(layout.GeneratedAt)
	doc.SetTitle(layout.Title, false)
	doc.SetAutoPageBreak(true, 15)

	// layout text is already restricted to Latin-1, which cp1252 covers byte for byte
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	r.header(doc, tr, layout)

	for _, section := range layout.Sections {
		writeHeading(doc, tr, section.Heading)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, tr(section.Text), "", "L", false)
		doc.Ln(4)
	}

	writeHeading(doc, tr, "Sources:")
	doc.SetFont("Helvetica", "", 11)
	if len(layout.Citations) == 0 {
		doc.MultiCell(0, 6, tr(placeholder(layout)), "", "L", false)
	}
	for _, c := range layout.Citations {
		doc.MultiCell(0, 6, tr(fmt.Sprintf("[%d] %s", c.Number, c.Label)), "", "L", false)
		writeLink(doc, tr, c)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(doc *fpdf.Fpdf, tr func(string) string, layout domain.ReportLayout) {
	if len(r.logo) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader(logoName, opts, bytes.NewReader(r.logo))
		doc.ImageOptions(logoName, 10, 8, 100, 0, false, opts, 0, "")
	}

	doc.SetFont("Times", "", 10)
	doc.SetXY(150, 23)
	doc.CellFormat(50, 10, tr(layout.Timestamp), "", 0, "R", false, 0, "")

	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(10, 38)
	doc.CellFormat(0, 10, tr(layout.Title), "", 1, "C", false, 0, "")
	doc.Ln(6)
}

func writeHeading(doc *fpdf.Fpdf, tr func(string) string, heading string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
}

// writeLink draws the citation URI under its label as a link annotation.
// Labels that already are the URI are not repeated.
func writeLink(doc *fpdf.Fpdf, tr func(string) string, c domain.Citation) {
	if c.URI == "" || c.URI == c.Label {
		return
	}
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(0, 0, 160)
	doc.SetX(doc.GetX() + 6)
	doc.WriteLinkString(5, tr(c.URI), c.URI)
	doc.Ln(6)
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 11)
}

func placeholder(layout domain.ReportLayout) string {
	if layout.Placeholder != "" {
		return layout.Placeholder
	}
	return domain.NoSourcesPlaceholder
}
