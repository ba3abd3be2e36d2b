package domain

// DocumentRecord is one entry of the externally maintained search catalog.
type DocumentRecord struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// CatalogEntry is the display view derived from a DocumentRecord.
// Bucket, Path, Name and FullName stay empty when URI is not a gs:// object URI.
type CatalogEntry struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Title    string `json:"title"`
	Bucket   string `json:"bucket"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

func (e CatalogEntry) Malformed() bool {
	return e.Bucket == "" && e.Path == ""
}
