package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/core/styles"
	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/organizer"
	"github.com/colonyops/taskorg/internal/taskorg"
)

type AddCmd struct {
	flags *Flags
	app   *taskorg.App

	source string
	local  bool

	// stdin is swapped in tests
	stdin io.Reader
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *taskorg.App) *AddCmd {
	return &AddCmd{flags: flags, app: app, stdin: os.Stdin}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Submit a task for organizing",
		UsageText: "taskorg add [--source name] [--local] [task text...]",
		Description: `Posts the task to api.endpoint (or TASK_API_ENDPOINT) and prints the
resulting category and priority.

With no arguments the task is read from an interactive prompt, or from the
first line of stdin when it is not a terminal.

Use --local to organize the task in-process against the local database
instead of a running server.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "source",
				Aliases:     []string{"s"},
				Usage:       "provenance recorded on the task",
				Value:       "cli",
				Destination: &cmd.source,
			},
			&cli.BoolFlag{
				Name:        "local",
				Usage:       "organize in-process instead of posting to the endpoint",
				Destination: &cmd.local,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = cmd.readText()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	if err := organizer.ValidateInput(text); err != nil {
		return err
	}

	var (
		org task.Classification
		err error
	)
	if cmd.local {
		var resp organizer.Response
		resp, err = cmd.app.Organizer.Organize(ctx, organizer.Request{Task: text, Source: cmd.source})
		org = resp.OrganizedTask
	} else {
		org, err = cmd.submit(ctx, text)
	}
	if err != nil {
		if errors.Is(err, config.ErrMissing) {
			return fmt.Errorf("%w\nset it in the config file, or use --local", err)
		}
		return err
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintln(out, styles.SuccessStyle.Render("✅ Task organized: "+string(org.Category)))
	_, _ = fmt.Fprintln(out, "   "+styles.LabelStyle.Render("Priority:")+" "+styles.Priority(org.Priority))
	return nil
}

func (cmd *AddCmd) submit(ctx context.Context, text string) (task.Classification, error) {
	client, err := cmd.app.Submitter()
	if err != nil {
		return task.Classification{}, err
	}

	resp, err := client.Submit(ctx, text, cmd.source)
	if err != nil {
		return task.Classification{}, err
	}
	return resp.OrganizedTask, nil
}

func (cmd *AddCmd) readText() (string, error) {
	if f, ok := cmd.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var text string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Task").
					Placeholder("what needs doing?").
					Validate(organizer.ValidateInput).
					Value(&text),
			),
		).WithTheme(styles.FormTheme()).Run()
		return text, err
	}

	line, err := bufio.NewReader(cmd.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
