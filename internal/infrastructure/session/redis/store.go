// Package redis shares sessions between API replicas through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

const maxUpdateAttempts = 5

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "docsearch:session:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// NewClient builds a client from a redis:// URL.
func NewClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	return decodeSession(id, raw, err)
}

// Update runs fn inside an optimistic WATCH transaction and retries when another
// replica changed the session concurrently.
func (s *Store) Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	key := s.key(id)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var (
			next  domain.Session
			fnErr error
		)
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			current, err := decodeSession(id, raw, err)
			if err != nil {
				return err
			}

			next, fnErr = fn(current)
			payload, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Session{}, fmt.Errorf("update session: %w", err)
		}
		return next, fnErr
	}
	return domain.Session{}, domain.WrapError(domain.ErrTemporary, "update session", errors.New("too much contention"))
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func decodeSession(id string, raw []byte, err error) (domain.Session, error) {
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(id), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}
