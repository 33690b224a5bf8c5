package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/pkg/iojson"
)

type LinksCmd struct {
	flags *Flags
	app   *taskorg.App

	jsonOutput bool
}

// NewLinksCmd creates a new links command
func NewLinksCmd(flags *Flags, app *taskorg.App) *LinksCmd {
	return &LinksCmd{flags: flags, app: app}
}

// Register adds the links command to the application
func (cmd *LinksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "links",
		Usage:     "Show tasks related to a task",
		UsageText: "taskorg links [--json] <id>",
		Flags: []cli.Flag{
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

type linkInfo struct {
	task.Link
	TargetText string `json:"target_task,omitempty"`
}

func (cmd *LinksCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one task id")
	}

	source, err := resolveTask(ctx, cmd.app.Tasks, c.Args().First())
	if err != nil {
		return err
	}

	links, err := cmd.app.Tasks.ListLinks(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	infos := make([]linkInfo, 0, len(links))
	for _, l := range links {
		info := linkInfo{Link: l}
		// link targets are not validated, so the target may not exist
		if target, err := cmd.app.Tasks.Get(ctx, l.TargetTaskID); err == nil {
			info.TargetText = target.Text
		}
		infos = append(infos, info)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, info := range infos {
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode link: %w", err)
			}
		}
		return nil
	}

	if len(infos) == 0 {
		fmt.Fprintf(os.Stderr, "No related tasks\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TARGET\tTYPE\tTASK")
	for _, info := range infos {
		text := info.TargetText
		if text == "" {
			text = "(unknown)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", info.TargetTaskID, info.Type, truncate(text, 60))
	}
	return w.Flush()
}
