package task

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrStorageUnavailable wraps any failure of the underlying collection.
	ErrStorageUnavailable = errors.New("task storage unavailable")
)

// ListFilter controls which tasks are returned by List.
type ListFilter struct {
	Category Category // empty means all categories
	Synced   *bool    // nil means both synced and unsynced
}

// Store defines task and link persistence.
//
// Implementations must tolerate concurrent callers; isolation is delegated to
// the backing store.
type Store interface {
	// Put inserts a new task. The store assigns ID and CreatedAt when unset
	// and always persists Synced and Completed as false.
	Put(ctx context.Context, t *Task) error

	// Get returns a single task by ID.
	// Returns ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (Task, error)

	// GetUnsynced returns every task not yet written to the vault.
	// No ordering is guaranteed.
	GetUnsynced(ctx context.Context) ([]Task, error)

	// MarkSynced flags a task as written to the vault. Unknown IDs are
	// ignored and repeated calls are harmless.
	MarkSynced(ctx context.Context, id string) error

	// GetAllExcept returns every task other than the given ID.
	GetAllExcept(ctx context.Context, id string) ([]Task, error)

	// List returns tasks matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Task, error)

	// PutLink appends a link record. Duplicates are allowed.
	PutLink(ctx context.Context, link Link) error

	// ListLinks returns links whose source is the given task.
	ListLinks(ctx context.Context, sourceID string) ([]Link, error)
}
