package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskorg/internal/core/styles"
	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/internal/vault"
)

type ShowCmd struct {
	flags *Flags
	app   *taskorg.App

	raw bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *taskorg.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Render a task as its vault note",
		UsageText: "taskorg show [--raw] <id>",
		Description: `Prints the note that sync writes for the task. The id may be the full
task id or its first eight characters.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the Markdown source without terminal styling",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one task id")
	}

	t, err := resolveTask(ctx, cmd.app.Tasks, c.Args().First())
	if err != nil {
		return err
	}

	note, err := vault.RenderNote(t)
	if err != nil {
		return fmt.Errorf("render note: %w", err)
	}

	out := c.Root().Writer
	if cmd.raw || !isTerminal(out) {
		_, err = fmt.Fprint(out, note)
		return err
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	rendered, err := styles.RenderMarkdown(note, width)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

type taskLister interface {
	Get(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, filter task.ListFilter) ([]task.Task, error)
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(ctx context.Context, store taskLister, id string) (task.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return task.Task{}, task.ErrNotFound
	}

	t, err := store.Get(ctx, id)
	if err == nil || !errors.Is(err, task.ErrNotFound) {
		return t, err
	}

	all, err := store.List(ctx, task.ListFilter{})
	if err != nil {
		return task.Task{}, err
	}

	var matches []task.Task
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, id) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("id prefix %q matches %d tasks", id, len(matches))
	}
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
