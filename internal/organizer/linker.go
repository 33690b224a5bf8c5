package organizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/inference"
)

const linkMaxTokens = 500

const linkPrompt = `Given this new task: "%s" (Category: %s)

And these existing tasks:
%s

Return ONLY a JSON array of task IDs that are related to the new task. Tasks are related if they:
- Share the same topic or goal
- One depends on the other
- Are sequential steps in the same category
- Are shopping items for the same project

Return an empty array [] if nothing is related. Return only valid JSON, no other text.`

// LinkResult reports what a FindLinks call did. Callers may ignore it.
type LinkResult struct {
	Created int
	Err     error
}

// LinkFinder asks the inference endpoint which stored tasks relate to a new
// one and records a link for each answer.
type LinkFinder struct {
	store task.Store
	llm   inference.Completer
	log   zerolog.Logger
	now   func() time.Time
}

// NewLinkFinder creates a LinkFinder.
func NewLinkFinder(store task.Store, llm inference.Completer, log zerolog.Logger) *LinkFinder {
	return &LinkFinder{
		store: store,
		llm:   llm,
		log:   log.With().Str("component", "link-finder").Logger(),
		now:   time.Now,
	}
}

// FindLinks links newTask to related existing tasks. Returned ids that are not
// among the enumerated tasks are skipped; duplicates are kept. Failures are
// logged and returned in the result; links written before a failure are kept.
func (f *LinkFinder) FindLinks(ctx context.Context, newTaskID string, newTask task.Task) LinkResult {
	existing, err := f.store.GetAllExcept(ctx, newTaskID)
	if err != nil {
		f.log.Warn().Err(err).Str("task_id", newTaskID).Msg("load tasks for linking")
		return LinkResult{Err: fmt.Errorf("load existing tasks: %w", err)}
	}
	if len(existing) == 0 {
		return LinkResult{}
	}
	if f.llm == nil {
		return LinkResult{}
	}

	known := make(map[string]struct{}, len(existing))
	var sb strings.Builder
	for _, t := range existing {
		known[t.ID] = struct{}{}
		fmt.Fprintf(&sb, "ID: %s, Task: %s, Category: %s\n", t.ID, t.Text, t.Category)
	}

	prompt := fmt.Sprintf(linkPrompt, newTask.Text, newTask.Category, strings.TrimRight(sb.String(), "\n"))
	reply, err := f.llm.Complete(ctx, inference.Prompt(prompt, linkMaxTokens))
	if err != nil {
		f.log.Warn().Err(err).Str("task_id", newTaskID).Msg("link inference failed")
		return LinkResult{Err: err}
	}

	ids, err := inference.DecodeArray[string](reply)
	if err != nil {
		f.log.Warn().Err(err).Str("task_id", newTaskID).Msg("unparseable link reply")
		return LinkResult{Err: err}
	}

	var res LinkResult
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			f.log.Debug().Str("task_id", newTaskID).Str("target", id).Msg("skip unknown link target")
			continue
		}
		link := task.Link{
			SourceTaskID: newTaskID,
			TargetTaskID: id,
			Type:         task.LinkRelated,
			CreatedAt:    f.now(),
		}
		if err := f.store.PutLink(ctx, link); err != nil {
			f.log.Warn().Err(err).Str("task_id", newTaskID).Str("target", id).Msg("store link")
			res.Err = fmt.Errorf("store link %s -> %s: %w", newTaskID, id, err)
			return res
		}
		res.Created++
	}

	f.log.Debug().Str("task_id", newTaskID).Int("links", res.Created).Msg("links created")
	return res
}
