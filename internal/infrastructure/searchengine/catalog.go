package searchengine

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type listDocumentsResponse struct {
	Documents     []documentResource `json:"documents"`
	NextPageToken string             `json:"nextPageToken"`
}

type documentResource struct {
	Name              string          `json:"name"`
	ID                string          `json:"id"`
	Content           documentContent `json:"content"`
	StructData        map[string]any  `json:"structData"`
	DerivedStructData map[string]any  `json:"derivedStructData"`
}

type documentContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
}

// ListDocuments pages through every document of the data store.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	records := make([]domain.DocumentRecord, 0)
	pageToken := ""

	for page := 0; page < maxListPages; page++ {
		query := url.Values{}
		query.Set("pageSize", strconv.Itoa(c.pageSize))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp listDocumentsResponse
		if err := c.doJSON(ctx, "GET", c.documentsPath()+"?"+query.Encode(), nil, &resp, "list_documents"); err != nil {
			return nil, err
		}
		for _, doc := range resp.Documents {
			records = append(records, doc.record())
		}

		if resp.NextPageToken == "" {
			return records, nil
		}
		pageToken = resp.NextPageToken
	}
	return nil, fmt.Errorf("list documents: more than %d pages", maxListPages)
}

func (d documentResource) record() domain.DocumentRecord {
	id := d.ID
	if id == "" && d.Name != "" {
		id = path.Base(d.Name)
	}
	return domain.DocumentRecord{
		ID:    id,
		URI:   d.Content.URI,
		Title: d.title(),
	}
}

func (d documentResource) title() string {
	for _, data := range []map[string]any{d.StructData, d.DerivedStructData} {
		if title, ok := data["title"].(string); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
