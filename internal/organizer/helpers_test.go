package organizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/inference"
)

// fakeCompleter returns scripted replies in order. Once the script runs out
// every call fails with inference.ErrRemoteCall.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []inference.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req inference.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.requests)
	f.requests = append(f.requests, req)

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", fmt.Errorf("%w: no scripted reply", inference.ErrRemoteCall)
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// memStore is an in-memory task.Store with error injection.
type memStore struct {
	mu      sync.Mutex
	tasks   []task.Task
	links   []task.Link
	nextID  int
	putErr  error
	scanErr error
	linkErr error
}

func (m *memStore) Put(_ context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.nextID++
	if t.ID == "" {
		t.ID = fmt.Sprintf("task-%04d-0000", m.nextID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.Synced = false
	t.Completed = false
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return task.Task{}, task.ErrNotFound
}

func (m *memStore) GetUnsynced(_ context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Task
	for _, t := range m.tasks {
		if !t.Synced {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) MarkSynced(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Synced = true
		}
	}
	return nil
}

func (m *memStore) GetAllExcept(_ context.Context, id string) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var out []task.Task
	for _, t := range m.tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, _ task.ListFilter) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Task(nil), m.tasks...), nil
}

func (m *memStore) PutLink(_ context.Context, l task.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkErr != nil {
		return m.linkErr
	}
	m.links = append(m.links, l)
	return nil
}

func (m *memStore) ListLinks(_ context.Context, sourceID string) ([]task.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Link
	for _, l := range m.links {
		if l.SourceTaskID == sourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

var errDisk = errors.New("disk full")
