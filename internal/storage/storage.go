package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when a key has never been written or has expired.
var ErrNotFound = errors.New("key not found")

// Store is the key-value collaborator that owns every persisted record.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, opts ...PutOption) error
	Close() error
}

type putOptions struct {
	ttl time.Duration
}

type PutOption func(*putOptions)

// WithTTL expires the record after ttl. Zero keeps it forever.
func WithTTL(ttl time.Duration) PutOption {
	return func(o *putOptions) { o.ttl = ttl }
}

func applyPutOptions(opts []PutOption) putOptions {
	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GetJSON reads key and decodes it into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// PutJSON encodes v and writes it under key.
func PutJSON(ctx context.Context, s Store, key string, v any, opts ...PutOption) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, string(raw), opts...)
}
