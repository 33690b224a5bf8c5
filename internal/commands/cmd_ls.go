package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *taskorg.App

	// flags
	jsonOutput bool
	category   string
	pending    bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *taskorg.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List stored tasks",
		UsageText: "taskorg ls [--category name] [--pending] [--json]",
		Description: `Displays a table of stored tasks, newest first.

Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "category",
				Usage:       "only show tasks in this category",
				Destination: &cmd.category,
			},
			&cli.BoolFlag{
				Name:        "pending",
				Usage:       "only show tasks not yet written to the vault",
				Destination: &cmd.pending,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	var filter task.ListFilter
	if cmd.category != "" {
		cat, ok := task.ParseCategory(cmd.category)
		if !ok {
			return fmt.Errorf("unknown category %q", cmd.category)
		}
		filter.Category = cat
	}
	if cmd.pending {
		synced := false
		filter.Synced = &synced
	}

	tasks, err := cmd.app.Tasks.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	if len(tasks) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No tasks found\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, t := range tasks {
			if err := iojson.WriteLine(out, t); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tPRIORITY\tMIN\tSYNCED\tTASK")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			t.ShortID(), t.Category, t.Priority, t.EstimatedMinutes, yesNo(t.Synced), truncate(t.Text, 60))
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
