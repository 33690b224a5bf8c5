package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// URLs, glob patterns, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateURLs(),
		c.validateAllowPatterns(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !c.Inference.Enabled() {
		warnings = append(warnings, ValidationWarning{
			Category: "Inference",
			Message:  "no api key configured, tasks are classified by keyword rules only",
		})
	}

	if c.Vault.Path == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Vault",
			Message:  "vault.path is not set, sync is disabled",
		})
	}

	if c.Notify.SMTP.Host == "" && c.Notify.WebhookURL == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Notify",
			Message:  "no notifier configured, email confirmations are not sent",
		})
	}

	return warnings
}

// validateFileAccess checks config file, data directory, and vault root.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("vault.path", c.Vault.Path, isExistingDirectory),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// isExistingDirectory validates that a set path is an existing directory.
func isExistingDirectory(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func httpURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: %s", raw)
	}
	return nil
}

func (c *Config) validateURLs() error {
	return criterio.ValidateStruct(
		criterio.Run("inference.url", c.Inference.URL, httpURL),
		criterio.Run("api.endpoint", c.API.Endpoint, httpURL),
		criterio.Run("notify.webhook_url", c.Notify.WebhookURL, httpURL),
	)
}

func (c *Config) validateAllowPatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Channels.Email.Allow {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("channels.email.allow[%d]", i), fmt.Errorf("invalid glob %q", p))
		}
	}
	return errs.ToError()
}
