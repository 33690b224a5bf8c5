package commands

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/taskorg/internal/commands/init"
	"github.com/colonyops/taskorg/internal/core/styles"
)

type InitCmd struct {
	flags *Flags

	yes         bool
	force       bool
	vaultPath   string
	apiEndpoint string
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write a starter configuration file",
		UsageText: "taskorg init [--yes] [--force] [--vault path] [--endpoint url]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip prompts and use flag values and defaults",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite an existing config (a backup is kept)",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "vault",
				Usage:       "vault directory",
				Destination: &cmd.vaultPath,
			},
			&cli.StringFlag{
				Name:        "endpoint",
				Usage:       "task API endpoint used by add",
				Destination: &cmd.apiEndpoint,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	w := initcmd.NewWizard(initcmd.WizardOptions{
		ConfigPath:  cmd.flags.ConfigPath,
		Yes:         cmd.yes,
		Force:       cmd.force,
		VaultPath:   cmd.vaultPath,
		APIEndpoint: cmd.apiEndpoint,
	}, c.Root().Writer)

	err := w.Run()
	switch {
	case errors.Is(err, initcmd.ErrCancelled), errors.Is(err, huh.ErrUserAborted):
		_, _ = c.Root().Writer.Write([]byte(styles.MutedStyle.Render("Init cancelled") + "\n"))
		return nil
	default:
		return err
	}
}
