package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/styles"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/internal/vault"
)

type SyncCmd struct {
	flags *Flags
	app   *taskorg.App
}

// NewSyncCmd creates a new sync command
func NewSyncCmd(flags *Flags, app *taskorg.App) *SyncCmd {
	return &SyncCmd{flags: flags, app: app}
}

// Register adds the sync command to the application
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Write unsynced tasks to the vault",
		UsageText: "taskorg sync",
		Description: `Renders every task not yet exported as a Markdown note under
<vault.path>/Tasks/<Category>/ and marks it synced.

Tasks that fail to write stay unsynced and are retried on the next run.
Exits non-zero when any note failed.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	syncer, err := cmd.app.Syncer()
	if err != nil {
		return err
	}

	rec := vault.NewRunner(syncer, cmd.app.KV, 0, log.Logger).RunOnce(ctx)

	out := c.Root().Writer
	if rec.Synced > 0 || rec.Error == "" {
		_, _ = fmt.Fprintf(out, "%s %d note(s) to %s\n",
			styles.SuccessStyle.Render("Synced"), rec.Synced, styles.MutedStyle.Render(syncer.Root()))
	}

	if rec.Error != "" {
		if rec.Failed > 0 {
			_, _ = fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("%d note(s) failed", rec.Failed)))
		}
		return cli.Exit(rec.Error, 1)
	}
	return nil
}
