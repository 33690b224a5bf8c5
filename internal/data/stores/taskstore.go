package stores

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/taskorg/internal/core/kv"
	"github.com/colonyops/taskorg/internal/core/task"
)

const (
	tasksCollection = "tasks"
	linksCollection = "task-links"

	syncedPath   = "$.synced_to_obsidian"
	categoryPath = "$.category"
)

// TaskStore implements task.Store on top of two KV collections: "tasks",
// keyed by task ID, and "task-links", an append log keyed by
// "<source>:<random>".
type TaskStore struct {
	tasks *kv.Collection[task.Task]
	links *kv.Collection[task.Link]
	now   func() time.Time
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a task store backed by the given KV store.
func NewTaskStore(store kv.KV) *TaskStore {
	return &TaskStore{
		tasks: kv.Scoped[task.Task](store, tasksCollection),
		links: kv.Scoped[task.Link](store, linksCollection),
		now:   time.Now,
	}
}

// Put inserts a new task, assigning an ID and creation time when unset.
func (s *TaskStore) Put(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Synced = false
	t.Completed = false

	if err := s.tasks.Put(ctx, t.ID, *t); err != nil {
		if errors.Is(err, kv.ErrExists) {
			return fmt.Errorf("put task %s: %w", t.ID, err)
		}
		return unavailable("put task", err)
	}

	return nil
}

// Get returns a single task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		if IsNotFoundError(err) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, unavailable("get task", err)
	}
	return t, nil
}

// GetUnsynced returns tasks that have not been written to the vault.
func (s *TaskStore) GetUnsynced(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.tasks.Scan(ctx, &kv.Filter{Path: syncedPath, Equals: false})
	if err != nil {
		return nil, unavailable("scan unsynced tasks", err)
	}
	return tasks, nil
}

// MarkSynced sets the synced flag. Unknown IDs are treated as already synced.
func (s *TaskStore) MarkSynced(ctx context.Context, id string) error {
	if _, err := s.tasks.Patch(ctx, id, syncedPath, true); err != nil {
		return unavailable("mark task synced", err)
	}
	return nil
}

// GetAllExcept returns every task except the one with the given ID.
func (s *TaskStore) GetAllExcept(ctx context.Context, id string) ([]task.Task, error) {
	all, err := s.tasks.Scan(ctx, nil)
	if err != nil {
		return nil, unavailable("scan tasks", err)
	}
	return slices.DeleteFunc(all, func(t task.Task) bool { return t.ID == id }), nil
}

// List returns tasks matching the filter, newest first.
func (s *TaskStore) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	var f *kv.Filter
	if filter.Category != "" {
		f = &kv.Filter{Path: categoryPath, Equals: filter.Category}
	}

	tasks, err := s.tasks.Scan(ctx, f)
	if err != nil {
		return nil, unavailable("list tasks", err)
	}

	if filter.Synced != nil {
		want := *filter.Synced
		tasks = slices.DeleteFunc(tasks, func(t task.Task) bool { return t.Synced != want })
	}

	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return tasks, nil
}

// PutLink appends a link record. Duplicate links are stored as separate records.
func (s *TaskStore) PutLink(ctx context.Context, link task.Link) error {
	if link.Type == "" {
		link.Type = task.LinkRelated
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = s.now()
	}

	key := link.SourceTaskID + ":" + uuid.NewString()
	if err := s.links.Put(ctx, key, link); err != nil {
		return unavailable("put task link", err)
	}
	return nil
}

// ListLinks returns the links created for the given source task.
func (s *TaskStore) ListLinks(ctx context.Context, sourceID string) ([]task.Link, error) {
	links, err := s.links.ScanPrefix(ctx, sourceID+":", nil)
	if err != nil {
		return nil, unavailable("list task links", err)
	}
	return links, nil
}

// CountUnsynced returns the number of tasks waiting for the vault.
func (s *TaskStore) CountUnsynced(ctx context.Context) (int, error) {
	tasks, err := s.GetUnsynced(ctx)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func unavailable(op string, err error) error {
	if IsBusyError(err) {
		return fmt.Errorf("%w: %s: database busy: %w", task.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", task.ErrStorageUnavailable, op, err)
}
