// Package initcmd writes a starter configuration file.
package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskorg/internal/core/styles"
)

// ErrCancelled is returned when the user declines to overwrite a config.
var ErrCancelled = errors.New("init cancelled")

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	Yes        bool // skip prompts, use defaults
	Force      bool // overwrite existing config

	VaultPath   string
	APIEndpoint string
}

// Answers are the values written to the generated config.
type Answers struct {
	VaultPath    string
	APIEndpoint  string
	SyncInterval time.Duration
	Linking      bool
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
	out  io.Writer
}

// NewWizard creates a new init wizard that reports progress to out.
func NewWizard(opts WizardOptions, out io.Writer) *Wizard {
	return &Wizard{opts: opts, out: out}
}

// Run executes the wizard.
func (w *Wizard) Run() error {
	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			WithTheme(styles.FormTheme()).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			return ErrCancelled
		}
	}

	answers := Answers{
		VaultPath:    w.opts.VaultPath,
		APIEndpoint:  w.opts.APIEndpoint,
		SyncInterval: 5 * time.Minute,
		Linking:      true,
	}

	if !w.opts.Yes {
		var err error
		answers, err = w.prompt(answers)
		if err != nil {
			return err
		}
	}

	answers.VaultPath = expandHome(answers.VaultPath)

	backupPath, err := BackupConfig(w.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("backup config: %w", err)
	}
	if backupPath != "" {
		_, _ = fmt.Fprintln(w.out, styles.MutedStyle.Render("Backed up config to: "+backupPath))
	}

	if err := WriteConfig(GenerateConfig(answers), w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	_, _ = fmt.Fprintln(w.out, styles.SuccessStyle.Render("✅ Created config: "+w.opts.ConfigPath))
	if answers.VaultPath == "" {
		_, _ = fmt.Fprintln(w.out, styles.WarningStyle.Render("vault.path is empty, set it before running sync"))
	}
	_, _ = fmt.Fprintln(w.out, styles.MutedStyle.Render("Set TASKORG_INFERENCE_API_KEY to enable model classification."))

	return nil
}

func (w *Wizard) prompt(a Answers) (Answers, error) {
	interval := a.SyncInterval.String()

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Vault path").
			Description("Directory of the notes vault; tasks are written to <vault>/Tasks").
			Value(&a.VaultPath),
		huh.NewInput().
			Title("API endpoint").
			Description("URL used by 'taskorg add', e.g. http://127.0.0.1:8080/tasks").
			Value(&a.APIEndpoint),
		huh.NewInput().
			Title("Sync interval").
			Description("How often 'taskorg serve' writes notes, 0 disables").
			Validate(func(s string) error {
				_, err := time.ParseDuration(strings.TrimSpace(s))
				return err
			}).
			Value(&interval),
		huh.NewConfirm().
			Title("Link related tasks?").
			Value(&a.Linking),
	)).WithTheme(styles.FormTheme())

	if err := form.Run(); err != nil {
		return a, err
	}

	d, err := time.ParseDuration(strings.TrimSpace(interval))
	if err != nil {
		return a, err
	}
	a.SyncInterval = d
	a.VaultPath = strings.TrimSpace(a.VaultPath)
	a.APIEndpoint = strings.TrimSpace(a.APIEndpoint)

	return a, nil
}

type generatedConfig struct {
	API struct {
		Endpoint string `yaml:"endpoint,omitempty"`
	} `yaml:"api"`
	Vault struct {
		Path     string `yaml:"path,omitempty"`
		Interval string `yaml:"interval"`
	} `yaml:"vault"`
	Linking struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"linking"`
}

// GenerateConfig renders the answers as config YAML.
func GenerateConfig(a Answers) []byte {
	var g generatedConfig
	g.API.Endpoint = a.APIEndpoint
	g.Vault.Path = a.VaultPath
	g.Vault.Interval = a.SyncInterval.String()
	g.Linking.Enabled = a.Linking

	out, err := yaml.Marshal(g)
	if err != nil {
		// only plain strings and bools are marshaled
		panic(err)
	}
	return append([]byte("# taskorg configuration\n"), out...)
}

// WriteConfig writes content to path, creating parent directories.
func WriteConfig(content []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
