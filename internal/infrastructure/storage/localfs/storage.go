// Package localfs stores objects on the local filesystem, one directory per bucket.
// Returned URIs keep the gs://bucket/key form so the catalog treats local and cloud
// objects the same way.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, key), nil
}

func (s *Storage) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) objectPath(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", domain.WrapError(domain.ErrInvalidInput, "object path", fmt.Errorf("invalid bucket %q", bucket))
	}
	root := filepath.Join(s.basePath, bucket)
	path := filepath.Join(root, filepath.FromSlash(key))
	if key == "" || !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "object path", fmt.Errorf("invalid key %q", key))
	}
	return path, nil
}
