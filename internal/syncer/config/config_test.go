package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/syncer/config"
	"notesync/pkg/logger"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load(ctx, "")
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
		assert.Equal(t, 10*time.Second, cfg.Backend.RequestTimeout)
		assert.Equal(t, ".", cfg.Vault.Root)
		assert.Equal(t, []string{".obsidian/**", ".git/**", ".trash/**"}, cfg.Vault.Ignore)
		assert.Equal(t, 100*time.Millisecond, cfg.Vault.PairingWindow)
		assert.Equal(t, 1, cfg.Retry.Attempts)
		assert.Equal(t, 5*time.Second, cfg.Shutdown.GetTimeout())
		assert.Equal(t, logger.Development, cfg.Logging.GetEnvironment())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SYNC_BACKEND_URL", "http://store:8080")
		t.Setenv("SYNC_REQUEST_TIMEOUT", "3s")
		t.Setenv("SYNC_VAULT_ROOT", "/vault")
		t.Setenv("SYNC_VAULT_IGNORE", "drafts/**")
		t.Setenv("SYNC_RETRY_ATTEMPTS", "4")
		t.Setenv("SYNC_LOGGER_MODE", "production")

		cfg, err := config.Load(ctx, "")
		require.NoError(t, err)

		assert.Equal(t, "http://store:8080", cfg.Backend.URL)
		assert.Equal(t, 3*time.Second, cfg.Backend.RequestTimeout)
		assert.Equal(t, "/vault", cfg.Vault.Root)
		assert.Equal(t, []string{"drafts/**"}, cfg.Vault.Ignore)
		assert.Equal(t, 4, cfg.Retry.Attempts)
		assert.Equal(t, logger.Production, cfg.Logging.GetEnvironment())
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "syncer.yaml")
		content := "backend:\n  url: http://file-store:5000\nvault:\n  root: /notes\nretry:\n  attempts: 2\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := config.Load(ctx, path)
		require.NoError(t, err)

		assert.Equal(t, "http://file-store:5000", cfg.Backend.URL)
		assert.Equal(t, "/notes", cfg.Vault.Root)
		assert.Equal(t, 2, cfg.Retry.Attempts)
		assert.Equal(t, 10*time.Second, cfg.Backend.RequestTimeout)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
