// Package catalog derives display metadata for the documents of the search catalog.
package catalog

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

var objectURIPattern = regexp.MustCompile(`^gs://([^/]*)/(.*)$`)

// Build derives one CatalogEntry per record, in input order.
//
// FullName strips the longest literal prefix shared by the parent directories of
// all well-formed entries. The prefix is character-wise, not segment-aware, so two
// parents "a/b" and "a/c" share "a/". When every path is the same the prefix is the
// whole parent and FullName becomes "/<name>".
func Build(records []domain.DocumentRecord) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(records))
	parents := make([]string, 0, len(records))

	for _, rec := range records {
		entry := domain.CatalogEntry{
			ID:    rec.ID,
			URI:   rec.URI,
			Title: rec.Title,
		}
		bucket, objectPath, ok := ParseObjectURI(rec.URI)
		if ok {
			entry.Bucket = bucket
			entry.Path = objectPath
			entry.Name = baseName(objectPath)
			parents = append(parents, parentDir(objectPath))
		}
		entries = append(entries, entry)
	}

	prefix := commonPrefix(parents)
	for i := range entries {
		if entries[i].Path == "" {
			continue
		}
		entries[i].FullName = strings.TrimPrefix(entries[i].Path, prefix)
	}
	return entries
}

// ParseObjectURI splits gs://bucket/path. The path may be empty.
func ParseObjectURI(uri string) (bucket, objectPath string, ok bool) {
	m := objectURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func baseName(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}

// parentDir is the literal leading part of p before its last segment, so that it
// is always a prefix of p. Root-level objects have an empty parent.
func parentDir(p string) string {
	trimmed := strings.TrimRight(p, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx]
}

func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, v := range values[1:] {
		prefix = sharedPrefix(prefix, v)
		if prefix == "" {
			return ""
		}
	}
	return prefix
}

func sharedPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) {
		ra, sizeA := utf8.DecodeRuneInString(a[n:])
		rb, sizeB := utf8.DecodeRuneInString(b[n:])
		if ra != rb || sizeA != sizeB {
			break
		}
		n += sizeA
	}
	return a[:n]
}

// URLsByTitle maps trimmed titles to URIs. Records missing either are skipped and
// later duplicates win.
func URLsByTitle(records []domain.DocumentRecord) map[string]string {
	out := make(map[string]string, len(records))
	for _, rec := range records {
		title := strings.TrimSpace(rec.Title)
		uri := strings.TrimSpace(rec.URI)
		if title == "" || uri == "" {
			continue
		}
		out[title] = uri
	}
	return out
}
