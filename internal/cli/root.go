// Package cli implements the undia command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgalvez/undiacomohoy/internal/backup"
	"github.com/mgalvez/undiacomohoy/internal/config"
	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/storage"
	"github.com/mgalvez/undiacomohoy/internal/storage/postgres"
	"github.com/mgalvez/undiacomohoy/internal/storage/sqlite"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "undia",
	Short: "A personal on-this-day diary",
	Long:  "A diary organized around the 366 days of the calendar: each day collects the memories of what happened on that date across the years.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $UNDIA_DB or ~/.undiacomohoy/diary.db)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("UNDIA_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".undiacomohoy", "diary.db")
}

// openKV opens the key-value store the diary runs on. The engine comes
// from the environment so the CLI and the web server share settings.
func openKV() (storage.KVStore, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Engine == "postgres" {
		return postgres.NewKVStore(cfg.Storage.PostgresDSN)
	}

	path := getDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewKVStore(path)
}

// openStore opens the diary store. The caller closes the returned KVStore.
func openStore() (*diary.Store, storage.KVStore, error) {
	kv, err := openKV()
	if err != nil {
		return nil, nil, err
	}
	return diary.New(kv), kv, nil
}

// openBackupService wires the backup service from configuration.
func openBackupService(kv storage.KVStore) (*backup.Service, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	remote := backup.NewDriveStore(cfg.Backup.RemoteURL)
	auth := backup.NewStaticAuthorizer(cfg.Backup.Token)
	return backup.NewService(kv, remote, auth, cfg.Backup.FolderName, cfg.Backup.FileName), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
