package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/taskorg/internal/core/kv"
	"github.com/colonyops/taskorg/internal/data/db"
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db *db.DB
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db}
}

// Get retrieves and deserializes a value by key.
// Returns an error wrapping sql.ErrNoRows if the key does not exist.
// Expired entries are lazily deleted and treated as missing.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if s.isExpired(row) {
		_ = s.db.Queries().KVDelete(ctx, key)
		return fmt.Errorf("kv get %q: %w", key, sql.ErrNoRows)
	}

	if err := json.Unmarshal(row.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value with no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that expires after the given duration.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixNano()
	return s.set(ctx, key, value, sql.NullInt64{Int64: expiresAt, Valid: true})
}

// Insert stores a value only when the key is absent.
func (s *KVStore) Insert(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv insert %q marshal: %w", key, err)
	}

	now := time.Now().UnixNano()
	err = s.db.Queries().KVInsert(ctx, db.KVSetParams{
		Key:       key,
		Value:     data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("kv insert %q: %w", key, kv.ErrExists)
		}
		return fmt.Errorf("kv insert %q: %w", key, err)
	}

	return nil
}

// Patch sets a single JSON path inside the stored document.
func (s *KVStore) Patch(ctx context.Context, key string, path string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("kv patch %q marshal: %w", key, err)
	}

	n, err := s.db.Queries().KVPatch(ctx, db.KVPatchParams{
		Path:      path,
		Value:     data,
		UpdatedAt: time.Now().UnixNano(),
		Key:       key,
	})
	if err != nil {
		return false, fmt.Errorf("kv patch %q: %w", key, err)
	}

	return n > 0, nil
}

// Scan returns live entries under prefix, optionally filtered on one field.
func (s *KVStore) Scan(ctx context.Context, prefix string, filter *kv.Filter) ([]kv.Entry, error) {
	now := time.Now().UnixNano()

	var (
		rows []db.KvStore
		err  error
	)
	if filter == nil {
		rows, err = s.db.Queries().KVScanPrefix(ctx, db.KVScanParams{Prefix: prefix, Now: now})
	} else {
		equals, merr := json.Marshal(filter.Equals)
		if merr != nil {
			return nil, fmt.Errorf("kv scan %q marshal filter: %w", prefix, merr)
		}
		rows, err = s.db.Queries().KVScanPrefixWhere(ctx, db.KVScanWhereParams{
			Prefix: prefix,
			Now:    now,
			Path:   filter.Path,
			Equals: equals,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("kv scan %q: %w", prefix, err)
	}

	entries := make([]kv.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// SweepExpired deletes all entries whose TTL has passed and returns how many
// were removed.
func (s *KVStore) SweepExpired(ctx context.Context) (int64, error) {
	now := sql.NullInt64{Int64: time.Now().UnixNano(), Valid: true}
	n, err := s.db.Queries().KVSweepExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	return n, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := time.Now().UnixNano()
	if err := s.db.Queries().KVSet(ctx, db.KVSetParams{
		Key:       key,
		Value:     data,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	return nil
}

func (s *KVStore) isExpired(row db.KvStore) bool {
	return row.ExpiresAt.Valid && row.ExpiresAt.Int64 < time.Now().UnixNano()
}

func rowToEntry(row db.KvStore) kv.Entry {
	entry := kv.Entry{
		Key:       row.Key,
		Value:     json.RawMessage(row.Value),
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}
	if row.ExpiresAt.Valid {
		t := time.Unix(0, row.ExpiresAt.Int64)
		entry.ExpiresAt = &t
	}
	return entry
}
