package vault

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/kv"
)

// RunRecord describes the most recent sync pass.
type RunRecord struct {
	At     time.Time `json:"at"`
	Synced int       `json:"synced"`
	Failed int       `json:"failed"`
	Error  string    `json:"error,omitempty"`
}

const (
	runNamespace = "vault-sync"
	runKey       = "last"
	successKey   = "last-success"
	runTTL       = 30 * 24 * time.Hour
)

// Runner calls Sync on a fixed interval and records each pass.
type Runner struct {
	syncer   *Syncer
	runs     *kv.Collection[RunRecord]
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner. store may be nil to skip recording.
func NewRunner(syncer *Syncer, store kv.KV, interval time.Duration, log zerolog.Logger) *Runner {
	r := &Runner{
		syncer:   syncer,
		interval: interval,
		log:      log.With().Str("component", "vault-runner").Logger(),
		now:      time.Now,
	}
	if store != nil {
		r.runs = kv.Scoped[RunRecord](store, runNamespace)
	}
	return r
}

// Start runs one pass immediately and then one per interval. It blocks until
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sync pass and records it.
func (r *Runner) RunOnce(ctx context.Context) RunRecord {
	res, err := r.syncer.Sync(ctx)

	rec := RunRecord{At: r.now(), Synced: res.Synced, Failed: res.Failed}
	switch {
	case err == nil:
		if res.Synced > 0 {
			r.log.Info().Int("synced", res.Synced).Msg("vault sync complete")
		}
	case errors.Is(err, context.Canceled):
		return rec
	default:
		rec.Error = err.Error()
		r.log.Warn().Err(err).Int("synced", res.Synced).Int("failed", res.Failed).Msg("vault sync failed")
	}

	if r.runs != nil {
		if err := r.runs.SetTTL(ctx, runKey, rec, runTTL); err != nil {
			r.log.Debug().Err(err).Msg("record vault sync run")
		}
		// Successful passes are kept without expiry.
		if rec.Error == "" {
			if err := r.runs.Set(ctx, successKey, rec); err != nil {
				r.log.Debug().Err(err).Msg("record vault sync success")
			}
		}
	}
	return rec
}

// LastRun returns the most recently recorded pass. ok is false when no pass
// has been recorded.
func LastRun(ctx context.Context, store kv.KV) (RunRecord, bool, error) {
	return loadRun(ctx, store, runKey)
}

// LastSuccess returns the most recent pass that finished without error.
func LastSuccess(ctx context.Context, store kv.KV) (RunRecord, bool, error) {
	return loadRun(ctx, store, successKey)
}

func loadRun(ctx context.Context, store kv.KV, key string) (rec RunRecord, ok bool, err error) {
	rec, err = kv.Scoped[RunRecord](store, runNamespace).Get(ctx, key)
	if err != nil {
		if isMissing(err) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}
	return rec, true, nil
}

func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
