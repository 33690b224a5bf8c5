package commands

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/logging"
	"github.com/colonyops/taskorg/internal/organizer"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/pkg/iojson"
	"github.com/colonyops/taskorg/pkg/randid"
)

type BatchCmd struct {
	flags *Flags
	app   *taskorg.App
	fr    *iojson.FileReader[BatchInput]
}

func NewBatchCmd(flags *Flags, app *taskorg.App) *BatchCmd {
	return &BatchCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[BatchInput]{},
	}
}

func (cmd *BatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "batch",
		Usage: "Organize multiple tasks from JSON input",
		UsageText: `taskorg batch [options]

Read from stdin:
  echo '{"tasks":[{"task":"buy milk"}]}' | taskorg batch

Read from file:
  taskorg batch -f tasks.json`,
		Description: `Organizes tasks in-process against the local database.

Tasks are processed sequentially. Processing stops after 3 failures and
tasks not attempted are marked as skipped.

Input JSON schema:
  {
    "tasks": [
      {"task": "task text", "source": "optional provenance"}
    ]
  }

Output is JSON with a batch ID and results for each task.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *BatchCmd) run(ctx context.Context, c *cli.Command) error {
	batchID := randid.Generate(6)
	logger := logging.Component("batch").With().Str("batch_id", batchID).Logger()

	input, err := cmd.fr.Read()
	if err != nil {
		return jsonFailure(fmt.Sprintf("read input: %s", err))
	}

	if err := input.Validate(); err != nil {
		return jsonFailure(fmt.Sprintf("invalid input: %s", err))
	}

	output := cmd.process(ctx, input)

	logger.Info().
		Int("total", len(input.Tasks)).
		Int("stored", countByStatus(output.Results, StatusStored)).
		Int("failed", countByStatus(output.Results, StatusFailed)).
		Int("skipped", countByStatus(output.Results, StatusSkipped)).
		Msg("batch processing complete")

	output.BatchID = batchID
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, output)
}

func (cmd *BatchCmd) process(ctx context.Context, input BatchInput) BatchOutput {
	output := BatchOutput{Results: make([]BatchResult, 0, len(input.Tasks))}

	failures := 0
	for i, item := range input.Tasks {
		if failures >= maxFailures {
			for j := i; j < len(input.Tasks); j++ {
				output.Results = append(output.Results, BatchResult{Index: j, Status: StatusSkipped})
			}
			break
		}

		source := item.Source
		if source == "" {
			source = "batch"
		}

		resp, err := cmd.app.Organizer.Organize(ctx, organizer.Request{Task: item.Task, Source: source})
		if err != nil {
			failures++
			output.Results = append(output.Results, BatchResult{Index: i, Status: StatusFailed, Error: err.Error()})
			continue
		}

		org := resp.OrganizedTask
		output.Results = append(output.Results, BatchResult{
			Index:    i,
			ID:       resp.ID,
			Status:   StatusStored,
			Category: string(org.Category),
			Priority: string(org.Priority),
		})
	}

	return output
}

const (
	StatusStored  = "stored"  // StatusStored indicates the task was organized and stored.
	StatusFailed  = "failed"  // StatusFailed indicates organizing the task failed.
	StatusSkipped = "skipped" // StatusSkipped indicates the task was not attempted due to failure threshold.
	maxFailures   = 3         // maxFailures is the number of failures before stopping batch processing.
)

// BatchInput is the JSON input schema for batch task creation.
type BatchInput struct {
	Tasks []BatchTask `json:"tasks"`
}

// BatchTask is one task in the batch input.
type BatchTask struct {
	Task   string `json:"task"`
	Source string `json:"source,omitempty"`
}

// Validate checks the batch input for errors using criterio.
func (b BatchInput) Validate() error {
	if len(b.Tasks) == 0 {
		return criterio.NewFieldErrors("tasks", errors.New("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	for i, item := range b.Tasks {
		if err := organizer.ValidateInput(item.Task); err != nil {
			errs = errs.Append(fmt.Sprintf("tasks[%d].task", i), err)
		}
		if utf8.RuneCountInString(item.Source) > 200 {
			errs = errs.Append(fmt.Sprintf("tasks[%d].source", i), errors.New("too long"))
		}
	}

	return errs.ToError()
}

// BatchOutput is the JSON output schema for batch task creation.
type BatchOutput struct {
	BatchID string        `json:"batch_id"`
	Results []BatchResult `json:"results"`
}

// BatchResult is the outcome of one input task.
type BatchResult struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Error    string `json:"error,omitempty"`
}

// jsonFailure prints msg as a JSON error envelope and exits non-zero.
func jsonFailure(msg string) error {
	if err := iojson.WriteError(msg, nil); err != nil {
		return err
	}
	return cli.Exit("", 1)
}

func countByStatus(results []BatchResult, status string) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}
