package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/profiler"
	"github.com/colonyops/taskorg/internal/taskorg"
	"github.com/colonyops/taskorg/internal/taskorg/sweep"
	"github.com/colonyops/taskorg/internal/vault"
)

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type ServeCmd struct {
	flags *Flags
	app   *taskorg.App

	addr      string
	noSync    bool
	pprofAddr string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *taskorg.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the HTTP entry point and the periodic vault sync",
		UsageText: "taskorg serve [--addr host:port] [--no-sync]",
		Description: `Accepts tasks on POST /tasks, inbound email on POST /channels/email and
chat webhooks on POST /channels/chat.

When vault.path is set and vault.interval is non-zero, unsynced tasks are
written to the vault immediately and then on every interval.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr)",
				Sources:     cli.EnvVars("TASKORG_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "no-sync",
				Usage:       "disable the periodic vault sync",
				Destination: &cmd.noSync,
			},
			&cli.StringFlag{
				Name:        "pprof",
				Usage:       "serve pprof endpoints on this address, e.g. 127.0.0.1:6060",
				Sources:     cli.EnvVars("TASKORG_PPROF"),
				Destination: &cmd.pprofAddr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cmd.addr
	if addr == "" {
		addr = cmd.app.Config.Server.Addr
	}

	gin.SetMode(gin.ReleaseMode)

	srv, err := cmd.app.Server(addr)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	if cmd.pprofAddr != "" {
		prof := profiler.New(cmd.pprofAddr, log.Logger)
		if err := prof.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = prof.Shutdown(shutdownCtx)
		}()
	}

	// background jobs must stop before the After hook closes the database
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	wg.Go(func() { sweep.Start(ctx, cmd.app.KV, sweepInterval) })

	if !cmd.noSync {
		if runner := cmd.syncRunner(); runner != nil {
			wg.Go(func() { runner.Start(ctx) })
		}
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info().Str("addr", srv.Addr()).Msg("taskorg listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (cmd *ServeCmd) syncRunner() *vault.Runner {
	cfg := cmd.app.Config
	if cfg.Vault.Interval == 0 {
		log.Info().Msg("vault sync disabled by vault.interval")
		return nil
	}

	syncer, err := cmd.app.Syncer()
	if err != nil {
		ev := log.Error()
		if errors.Is(err, config.ErrMissing) {
			ev = log.Warn()
		}
		ev.Err(err).Msg("vault sync disabled")
		return nil
	}

	return vault.NewRunner(syncer, cmd.app.KV, cfg.Vault.Interval, log.Logger)
}
