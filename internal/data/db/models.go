package db

import "database/sql"

// KvStore is a row of the kv_store table. Value holds a JSON document.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}
