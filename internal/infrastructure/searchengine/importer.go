package searchengine

import (
	"context"
	"errors"
)

type importRequest struct {
	GCSSource          gcsSource `json:"gcsSource"`
	ReconciliationMode string    `json:"reconciliationMode"`
}

type gcsSource struct {
	InputURIs  []string `json:"inputUris"`
	DataSchema string   `json:"dataSchema"`
}

// ImportDocuments starts an incremental import of the given objects. The backend
// runs the import as a long-running operation that is not awaited.
func (c *Client) ImportDocuments(ctx context.Context, uris []string) error {
	if len(uris) == 0 {
		return errors.New("import documents: no uris")
	}
	req := importRequest{
		GCSSource: gcsSource{
			InputURIs:  uris,
			DataSchema: "content",
		},
		ReconciliationMode: "INCREMENTAL",
	}
	var op struct {
		Name string `json:"name"`
	}
	return c.doJSON(ctx, "POST", c.documentsPath()+":import", req, &op, "import_documents")
}
