package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/vault"
)

// ConfigCheck runs deep config validation.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a new config check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string { return "Configuration" }

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	err := c.cfg.ValidateDeep(c.configPath)
	var fe criterio.FieldErrors
	switch {
	case err == nil:
		result.Items = append(result.Items, pass("config", c.configPath))
	case errors.As(err, &fe):
		for _, e := range fe {
			result.Items = append(result.Items, fail(e.Field, e.Err.Error()))
		}
	default:
		result.Items = append(result.Items, fail("config", err.Error()))
	}

	for _, w := range c.cfg.Warnings() {
		result.Items = append(result.Items, warn(w.Category, w.Message))
	}

	return result
}

// Counter reports how many tasks wait for the vault.
type Counter interface {
	CountUnsynced(ctx context.Context) (int, error)
}

// StorageCheck verifies the task store is readable.
type StorageCheck struct {
	store Counter
}

// NewStorageCheck creates a new storage check.
func NewStorageCheck(store Counter) *StorageCheck {
	return &StorageCheck{store: store}
}

func (c *StorageCheck) Name() string { return "Storage" }

func (c *StorageCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	n, err := c.store.CountUnsynced(ctx)
	if err != nil {
		result.Items = append(result.Items, fail("database", err.Error()))
		return result
	}

	result.Items = append(result.Items, pass("database", fmt.Sprintf("%d task(s) pending sync", n)))
	return result
}

// VaultCheck verifies the vault root exists and accepts writes.
type VaultCheck struct {
	root string
}

// NewVaultCheck creates a new vault check. An empty root produces a warning.
func NewVaultCheck(root string) *VaultCheck {
	return &VaultCheck{root: root}
}

func (c *VaultCheck) Name() string { return "Vault" }

func (c *VaultCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if c.root == "" {
		result.Items = append(result.Items, warn("vault.path", "not configured"))
		return result
	}

	info, err := os.Stat(c.root)
	switch {
	case err != nil:
		result.Items = append(result.Items, fail("vault.path", err.Error()))
		return result
	case !info.IsDir():
		result.Items = append(result.Items, fail("vault.path", "not a directory: "+c.root))
		return result
	}
	result.Items = append(result.Items, pass("vault.path", c.root))

	probe, err := os.CreateTemp(c.root, ".taskorg-doctor-*")
	if err != nil {
		result.Items = append(result.Items, fail("writable", err.Error()))
		return result
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	result.Items = append(result.Items, pass("writable", filepath.Join(c.root, vault.TasksDir)))

	return result
}
