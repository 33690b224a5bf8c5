package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Collection provides type-safe access to the documents of one namespace.
type Collection[T any] struct {
	store  KV
	prefix string
}

// Scoped returns a Collection[T] that prefixes all keys with "namespace:".
func Scoped[T any](store KV, namespace string) *Collection[T] {
	return &Collection[T]{
		store:  store,
		prefix: namespace + ":",
	}
}

// Get retrieves and deserializes a document by key.
func (c *Collection[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	if err := c.store.Get(ctx, c.prefix+key, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Put stores a new document; ErrExists if the key is taken.
func (c *Collection[T]) Put(ctx context.Context, key string, value T) error {
	return c.store.Insert(ctx, c.prefix+key, value)
}

// Set stores a document with no expiry, replacing any previous value.
func (c *Collection[T]) Set(ctx context.Context, key string, value T) error {
	return c.store.Set(ctx, c.prefix+key, value)
}

// SetTTL stores a document that expires after the given duration.
func (c *Collection[T]) SetTTL(ctx context.Context, key string, value T, ttl time.Duration) error {
	return c.store.SetTTL(ctx, c.prefix+key, value, ttl)
}

// Patch sets a single field of the document stored under key.
func (c *Collection[T]) Patch(ctx context.Context, key string, path string, value any) (bool, error) {
	return c.store.Patch(ctx, c.prefix+key, path, value)
}

// Scan returns every document in the collection matching filter.
func (c *Collection[T]) Scan(ctx context.Context, filter *Filter) ([]T, error) {
	return c.ScanPrefix(ctx, "", filter)
}

// ScanPrefix returns documents whose key, within the collection, starts with
// sub.
func (c *Collection[T]) ScanPrefix(ctx context.Context, sub string, filter *Filter) ([]T, error) {
	entries, err := c.store.Scan(ctx, c.prefix+sub, filter)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %q: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
