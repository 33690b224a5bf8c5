// Package kv defines the document-oriented key-value interface the task
// collections are stored in.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrExists is returned by Insert when the key is already present.
var ErrExists = errors.New("key already exists")

// Entry represents a raw KV entry with metadata.
type Entry struct {
	Key       string
	Value     json.RawMessage
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter restricts a scan to documents whose field at Path (a JSON path such
// as "$.synced_to_obsidian") equals Equals.
type Filter struct {
	Path   string
	Equals any
}

// KV is the interface for a persistent key-value store.
// Keys are strings, values are JSON documents.
// Get on a missing key returns an error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	// Insert stores value only if key is absent, otherwise ErrExists.
	Insert(ctx context.Context, key string, value any) error
	// Patch sets one field of a stored document. It reports false, with no
	// error, when the key does not exist.
	Patch(ctx context.Context, key string, path string, value any) (bool, error)
	// Scan returns every live entry whose key starts with prefix. A nil
	// filter matches all entries.
	Scan(ctx context.Context, prefix string, filter *Filter) ([]Entry, error)
}
