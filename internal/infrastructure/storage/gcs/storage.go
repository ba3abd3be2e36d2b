// Package gcs stores uploaded documents in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type Storage struct {
	client *storage.Client
}

// New uses application default credentials.
func New(ctx context.Context) (*Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Storage{client: client}, nil
}

func NewWithClient(client *storage.Client) *Storage {
	return &Storage{client: client}
}

// Save streams data into bucket/key. A failed read cancels the upload so no
// partial object is committed.
func (s *Storage) Save(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, data); err != nil {
		cancel()
		return "", fmt.Errorf("upload object gs://%s/%s: %w", bucket, key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize object gs://%s/%s: %w", bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, key), nil
}

func (s *Storage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", err)
		}
		return nil, fmt.Errorf("open object gs://%s/%s: %w", bucket, key, err)
	}
	return reader, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
