// Package taskorg assembles the services behind the CLI commands.
package taskorg

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/apiclient"
	"github.com/colonyops/taskorg/internal/channels"
	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/data/db"
	"github.com/colonyops/taskorg/internal/data/stores"
	"github.com/colonyops/taskorg/internal/inference"
	"github.com/colonyops/taskorg/internal/notify"
	"github.com/colonyops/taskorg/internal/organizer"
	"github.com/colonyops/taskorg/internal/server"
	"github.com/colonyops/taskorg/internal/vault"
)

// App is the central entry point for all taskorg operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config    *config.Config
	DB        *db.DB
	KV        *stores.KVStore
	Tasks     *stores.TaskStore
	Organizer *organizer.Service
	Notifier  notify.Notifier

	log zerolog.Logger
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, database *db.DB, log zerolog.Logger) *App {
	kvStore := stores.NewKVStore(database)
	tasks := stores.NewTaskStore(kvStore)

	var llm inference.Completer
	if cfg.Inference.Enabled() {
		llm = inference.NewClient(inference.Config{
			URL:     cfg.Inference.URL,
			APIKey:  cfg.Inference.APIKey,
			Model:   cfg.Inference.Model,
			Version: cfg.Inference.AnthropicVersion,
			Timeout: cfg.Inference.Timeout,
		})
	}

	classifier := organizer.NewClassifier(llm, log).WithMaxTokens(cfg.Inference.MaxTokens)

	var linker *organizer.LinkFinder
	if cfg.Linking.Enabled {
		linker = organizer.NewLinkFinder(tasks, llm, log)
	}

	return &App{
		Config:    cfg,
		DB:        database,
		KV:        kvStore,
		Tasks:     tasks,
		Organizer: organizer.NewService(classifier, tasks, linker, log),
		Notifier:  newNotifier(cfg.Notify),
		log:       log,
	}
}

func newNotifier(cfg config.NotifyConfig) notify.Notifier {
	var ns []notify.Notifier
	if cfg.SMTP.Host != "" {
		ns = append(ns, notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}))
	}
	if cfg.WebhookURL != "" {
		ns = append(ns, notify.NewWebhookNotifier(cfg.WebhookURL))
	}
	return notify.Multi(ns...)
}

// Syncer returns a vault syncer for the configured vault path.
func (a *App) Syncer() (*vault.Syncer, error) {
	root, err := a.Config.RequireVaultPath()
	if err != nil {
		return nil, err
	}
	return vault.NewSyncer(a.Tasks, root, a.log), nil
}

// Server builds the HTTP server with every channel enabled.
func (a *App) Server(addr string) (*server.Server, error) {
	email, err := channels.NewEmailHandler(a.Organizer, a.Notifier, channels.EmailConfig{
		Prefix: a.Config.Channels.Email.Prefix,
		Allow:  a.Config.Channels.Email.Allow,
	}, a.log)
	if err != nil {
		return nil, err
	}

	return server.New(addr, server.Options{
		Organizer: a.Organizer,
		Email:     email,
		Chat:      channels.NewChatHandler(a.Organizer, a.log),
	}, a.log), nil
}

// Submitter returns a client for the configured remote endpoint.
func (a *App) Submitter() (*apiclient.Client, error) {
	endpoint, err := a.Config.RequireAPIEndpoint()
	if err != nil {
		return nil, err
	}
	return apiclient.New(endpoint, a.Config.API.Timeout), nil
}
