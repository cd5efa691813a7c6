package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalvez/undiacomohoy/internal/config"
)

func TestLoadConfig_DefaultHostIsLocalhost(t *testing.T) {
	_ = os.Unsetenv("UNDIA_HOST")
	cfg, err := config.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host,
		"Default host must be 127.0.0.1 for security")
}

func TestLoadConfig_CanOverrideHost(t *testing.T) {
	t.Setenv("UNDIA_HOST", "0.0.0.0")
	cfg, err := config.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_Defaults(t *testing.T) {
	_ = os.Unsetenv("UNDIA_STORAGE_ENGINE")
	_ = os.Unsetenv("UNDIA_BACKUP_FOLDER")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 6464, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Equal(t, "development", cfg.Security.SecurityMode)
	assert.Equal(t, "UnDiaComoHoy", cfg.Backup.FolderName)
	assert.Equal(t, "undiacomohoy-backup.json", cfg.Backup.FileName)
}

func TestLoadConfigFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
storage:
  engine: postgres
  postgres_dsn: postgres://localhost/undia
backup:
  folder_name: CarpetaPropia
`), 0o644))

	t.Setenv("UNDIA_PORT", "9100")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env var must win over the file")
	assert.Equal(t, "postgres", cfg.Storage.Engine)
	assert.Equal(t, "CarpetaPropia", cfg.Backup.FolderName)
	assert.Equal(t, "undiacomohoy-backup.json", cfg.Backup.FileName,
		"unset file keys keep their defaults")
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	_, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown engine", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Engine = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Engine = "postgres"
		cfg.Storage.PostgresDSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires token", func(t *testing.T) {
		cfg := base()
		cfg.Security.SecurityMode = "production"
		cfg.Security.APIToken = ""
		assert.Error(t, cfg.Validate())

		cfg.Security.APIToken = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("port range", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})
}
