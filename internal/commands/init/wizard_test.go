package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskorg/internal/core/config"
)

func TestGenerateConfig_LoadsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := GenerateConfig(Answers{
		VaultPath:    dir,
		APIEndpoint:  "http://127.0.0.1:8080/tasks",
		SyncInterval: 2 * time.Minute,
		Linking:      false,
	})
	require.NoError(t, WriteConfig(content, path))

	cfg, err := config.Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Vault.Path)
	assert.Equal(t, 2*time.Minute, cfg.Vault.Interval)
	assert.Equal(t, "http://127.0.0.1:8080/tasks", cfg.API.Endpoint)
	assert.False(t, cfg.Linking.Enabled)
}

func TestWizard_Yes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	var out bytes.Buffer
	w := NewWizard(WizardOptions{ConfigPath: path, Yes: true, VaultPath: dir}, &out)
	require.NoError(t, w.Run())
	assert.Contains(t, out.String(), "Created config")
	assert.FileExists(t, path)

	// second run refuses without --force
	err := NewWizard(WizardOptions{ConfigPath: path, Yes: true}, &out).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, NewWizard(WizardOptions{ConfigPath: path, Yes: true, Force: true}, &out).Run())
	assert.FileExists(t, path+".bak")
}

func TestBackupConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	backup, err := BackupConfig(path)
	require.NoError(t, err)
	assert.Empty(t, backup)
	assert.False(t, ConfigExists(path))

	require.NoError(t, os.WriteFile(path, []byte("vault: {}\n"), 0o644))
	backup, err = BackupConfig(path)
	require.NoError(t, err)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "vault: {}\n", string(data))
}
