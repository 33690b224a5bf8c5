package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/task"
)

// ErrVaultMissing is returned when the vault root is unset or is not an
// existing directory.
var ErrVaultMissing = errors.New("vault path not configured or missing")

// Result counts the outcome of one Sync pass.
type Result struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Syncer exports unsynced tasks as notes and flags them synced.
type Syncer struct {
	store task.Store
	root  string
	log   zerolog.Logger
}

// NewSyncer creates a Syncer writing under root.
func NewSyncer(store task.Store, root string, log zerolog.Logger) *Syncer {
	return &Syncer{
		store: store,
		root:  root,
		log:   log.With().Str("component", "vault-sync").Logger(),
	}
}

// Root returns the configured vault root.
func (s *Syncer) Root() string {
	return s.root
}

// Sync writes one note per unsynced task. A task whose note cannot be written
// stays unsynced and is retried on the next pass. The returned error is
// non-nil when any task failed.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	if err := checkRoot(s.root); err != nil {
		return Result{}, err
	}

	pending, err := s.store.GetUnsynced(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load unsynced tasks: %w", err)
	}

	var (
		res  Result
		errs []error
	)
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		path, err := s.write(t)
		if err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("write note")
			res.Failed++
			errs = append(errs, err)
			continue
		}

		if err := s.store.MarkSynced(ctx, t.ID); err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("mark synced")
			res.Failed++
			errs = append(errs, fmt.Errorf("mark %s synced: %w", t.ID, err))
			continue
		}

		s.log.Debug().Str("task_id", t.ID).Str("path", path).Msg("note written")
		res.Synced++
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("%d of %d notes failed: %w", res.Failed, len(pending), errors.Join(errs...))
	}
	return res, nil
}

func (s *Syncer) write(t task.Task) (string, error) {
	body, err := RenderNote(t)
	if err != nil {
		return "", fmt.Errorf("render note %s: %w", t.ID, err)
	}

	path := NotePath(s.root, t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create category dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write note %s: %w", t.ID, err)
	}
	return path, nil
}

func checkRoot(root string) error {
	if root == "" {
		return ErrVaultMissing
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrVaultMissing, root)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrVaultMissing, root)
	}
	return nil
}
