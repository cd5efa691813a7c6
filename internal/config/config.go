// Package config provides configuration management for the diary.
// Settings come from three layers, lowest to highest precedence:
// built-in defaults, an optional YAML config file, and environment
// variables with the UNDIA_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Backup   BackupConfig   `yaml:"backup"`
	Lookup   LookupConfig   `yaml:"lookup"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 6464)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // Path to data directory for sqlite (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Postgres connection string, required when engine=postgres
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string  `yaml:"security_mode"` // Security mode: development, production (default: development)
	APIToken     string  `yaml:"api_token"`     // API authentication token, required in production mode
	RatePerSec   float64 `yaml:"rate_per_sec"`  // Global request rate limit (default: 50)
	RateBurst    int     `yaml:"rate_burst"`    // Rate limit burst size (default: 100)
}

// BackupConfig contains remote backup configuration.
type BackupConfig struct {
	FolderName string `yaml:"folder_name"` // Remote folder holding the backup (default: UnDiaComoHoy)
	FileName   string `yaml:"file_name"`   // Remote backup file name (default: undiacomohoy-backup.json)
	RemoteURL  string `yaml:"remote_url"`  // Base URL of the Drive-compatible API (empty selects the public endpoint)
	Token      string `yaml:"token"`       // Bearer token for the remote store
}

// LookupConfig contains the external search service endpoints. Empty
// values select the public endpoints.
type LookupConfig struct {
	PlacesURL string `yaml:"places_url"` // Geocoder base URL
	SongsURL  string `yaml:"songs_url"`  // Music catalog base URL
}

// LoadConfig loads configuration from defaults and environment variables.
// All environment variables use the UNDIA_ prefix.
func LoadConfig() (*Config, error) {
	return applyEnv(defaults()), nil
}

// LoadConfigFile loads configuration from a YAML file, then applies
// environment overrides on top. A missing file is an error; use
// LoadConfig when no file is expected.
func LoadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

// Validate checks the settings that cannot be defaulted into sanity.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires a connection string")
	}
	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: production mode requires an API token")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

// defaults constructs a Config with the built-in defaults.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 6464,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		Security: SecurityConfig{
			SecurityMode: "development",
			RatePerSec:   50,
			RateBurst:    100,
		},
		Backup: BackupConfig{
			FolderName: "UnDiaComoHoy",
			FileName:   "undiacomohoy-backup.json",
		},
	}
}

// applyEnv overlays UNDIA_ environment variables onto a Config.
func applyEnv(cfg *Config) *Config {
	cfg.Server.Port = getEnvInt("UNDIA_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("UNDIA_HOST", cfg.Server.Host)

	cfg.Storage.Engine = getEnv("UNDIA_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("UNDIA_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("UNDIA_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.Security.SecurityMode = getEnv("UNDIA_SECURITY_MODE", cfg.Security.SecurityMode)
	cfg.Security.APIToken = getEnv("UNDIA_API_TOKEN", cfg.Security.APIToken)

	cfg.Backup.FolderName = getEnv("UNDIA_BACKUP_FOLDER", cfg.Backup.FolderName)
	cfg.Backup.FileName = getEnv("UNDIA_BACKUP_FILE", cfg.Backup.FileName)
	cfg.Backup.RemoteURL = getEnv("UNDIA_BACKUP_REMOTE_URL", cfg.Backup.RemoteURL)
	cfg.Backup.Token = getEnv("UNDIA_BACKUP_TOKEN", cfg.Backup.Token)

	cfg.Lookup.PlacesURL = getEnv("UNDIA_PLACES_URL", cfg.Lookup.PlacesURL)
	cfg.Lookup.SongsURL = getEnv("UNDIA_SONGS_URL", cfg.Lookup.SongsURL)
	return cfg
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
