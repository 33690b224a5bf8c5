package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/styles"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/internal/vault"
)

type StatusCmd struct {
	flags *Flags
	app   *taskorg.App
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *taskorg.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show pending notes and the last vault sync",
		UsageText: "taskorg status",
		Action:    cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	pending, err := cmd.app.Tasks.CountUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("count unsynced: %w", err)
	}

	rec, ok, err := vault.LastRun(ctx, cmd.app.KV)
	if err != nil {
		return fmt.Errorf("read last sync: %w", err)
	}

	cfg := cmd.app.Config
	out := c.Root().Writer
	line := func(label, value string) {
		_, _ = fmt.Fprintf(out, "%s %s\n", styles.LabelStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}

	_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render("taskorg"))

	vaultPath := cfg.Vault.Path
	if vaultPath == "" {
		vaultPath = styles.WarningStyle.Render("not configured")
	}
	line("Vault:", vaultPath)

	classifier := "keyword rules"
	if cfg.Inference.Enabled() {
		classifier = cfg.Inference.Model
	}
	line("Classifier:", classifier)
	line("Pending:", fmt.Sprintf("%d task(s)", pending))

	if !ok {
		line("Last sync:", styles.MutedStyle.Render("never"))
		return nil
	}

	summary := fmt.Sprintf("%s (%d synced, %d failed)", rec.At.Format(time.RFC3339), rec.Synced, rec.Failed)
	if rec.Error != "" {
		summary = styles.ErrorStyle.Render(summary) + "\n" + styles.MutedStyle.Render("             "+rec.Error)
	}
	line("Last sync:", summary)

	if rec.Error != "" {
		good, found, err := vault.LastSuccess(ctx, cmd.app.KV)
		if err != nil {
			return fmt.Errorf("read last successful sync: %w", err)
		}
		last := styles.MutedStyle.Render("never")
		if found {
			last = good.At.Format(time.RFC3339)
		}
		line("Last good:", last)
	}
	return nil
}
