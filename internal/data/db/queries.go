package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the stores.
type Queries struct {
	db DBTX
}

// New binds queries to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const kvColumns = `key, value, expires_at, created_at, updated_at`

const kvGet = `SELECT ` + kvColumns + ` FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	return scanKV(q.db.QueryRowContext(ctx, kvGet, key))
}

const kvSet = `INSERT INTO kv_store (` + kvColumns + `)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

// Value is bound as text so the JSON functions never see a BLOB.
type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet, arg.Key, string(arg.Value), arg.ExpiresAt, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const kvInsert = `INSERT INTO kv_store (` + kvColumns + `) VALUES (?, ?, ?, ?, ?)`

// KVInsert fails with a UNIQUE constraint error when the key exists.
func (q *Queries) KVInsert(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvInsert, arg.Key, string(arg.Value), arg.ExpiresAt, arg.CreatedAt, arg.UpdatedAt)
	return err
}

// json_set with json() keeps booleans and objects typed inside the document.
const kvPatch = `UPDATE kv_store SET value = json_set(value, ?, json(?)), updated_at = ? WHERE key = ?`

type KVPatchParams struct {
	Path      string
	Value     []byte
	UpdatedAt int64
	Key       string
}

// KVPatch sets one JSON path inside a stored document and reports how many
// rows matched.
func (q *Queries) KVPatch(ctx context.Context, arg KVPatchParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, kvPatch, arg.Path, string(arg.Value), arg.UpdatedAt, arg.Key)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

// Rows come back in rowid order, which is insertion order for keys that are
// never deleted and re-added. Callers must not depend on it.
const kvScanPrefix = `SELECT ` + kvColumns + ` FROM kv_store
WHERE substr(key, 1, length(?1)) = ?1
  AND (expires_at IS NULL OR expires_at > ?2)
ORDER BY rowid`

type KVScanParams struct {
	Prefix string
	Now    int64
}

func (q *Queries) KVScanPrefix(ctx context.Context, arg KVScanParams) ([]KvStore, error) {
	return q.queryKV(ctx, kvScanPrefix, arg.Prefix, arg.Now)
}

// The filter compares a single JSON path against a JSON literal.
const kvScanPrefixWhere = `SELECT ` + kvColumns + ` FROM kv_store
WHERE substr(key, 1, length(?1)) = ?1
  AND (expires_at IS NULL OR expires_at > ?2)
  AND json_extract(value, ?3) IS json_extract(json(?4), '$')
ORDER BY rowid`

type KVScanWhereParams struct {
	Prefix string
	Now    int64
	Path   string
	Equals []byte
}

func (q *Queries) KVScanPrefixWhere(ctx context.Context, arg KVScanWhereParams) ([]KvStore, error) {
	return q.queryKV(ctx, kvScanPrefixWhere, arg.Prefix, arg.Now, arg.Path, string(arg.Equals))
}

const kvSweepExpired = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`

func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) (int64, error) {
	res, err := q.db.ExecContext(ctx, kvSweepExpired, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKV(row rowScanner) (KvStore, error) {
	var i KvStore
	err := row.Scan(&i.Key, &i.Value, &i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (q *Queries) queryKV(ctx context.Context, query string, args ...any) ([]KvStore, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []KvStore
	for rows.Next() {
		i, err := scanKV(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
