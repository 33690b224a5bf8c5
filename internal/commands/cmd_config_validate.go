package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/core/styles"
	"github.com/colonyops/taskorg/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "taskorg config validate [options]",
				Description: "Validates the configuration file, checking URLs, sender patterns, and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type validationOutput struct {
	Valid    bool                       `json:"valid"`
	Errors   []validationIssue          `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	err := cfg.ValidateDeep(cmd.flags.ConfigPath)

	result := validationOutput{
		Valid:    err == nil,
		Errors:   issues(err),
		Warnings: cfg.Warnings(),
	}

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, result); err != nil {
			return err
		}
		if !result.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	out := c.Root().Writer
	for _, w := range result.Warnings {
		_, _ = fmt.Fprintln(out, styles.WarningStyle.Render("! "+w.Category+": "+w.Message))
	}
	for _, e := range result.Errors {
		msg := e.Message
		if e.Field != "" {
			msg = e.Field + ": " + msg
		}
		_, _ = fmt.Fprintln(out, styles.ErrorStyle.Render("✗ "+msg))
	}

	_, _ = fmt.Fprintln(out)
	if result.Valid {
		_, _ = fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Configuration is valid"))
		return nil
	}

	_, _ = fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("%d error(s) found", len(result.Errors))))
	return cli.Exit("", 1)
}

func issues(err error) []validationIssue {
	if err == nil {
		return nil
	}

	var fe criterio.FieldErrors
	if errors.As(err, &fe) {
		out := make([]validationIssue, 0, len(fe))
		for _, e := range fe {
			out = append(out, validationIssue{Field: e.Field, Message: e.Err.Error()})
		}
		return out
	}

	return []validationIssue{{Message: err.Error()}}
}
