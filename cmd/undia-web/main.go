package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mgalvez/undiacomohoy/internal/backup"
	"github.com/mgalvez/undiacomohoy/internal/config"
	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/server"
	"github.com/mgalvez/undiacomohoy/internal/storage"
	"github.com/mgalvez/undiacomohoy/internal/storage/postgres"
	"github.com/mgalvez/undiacomohoy/internal/storage/sqlite"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize storage
	var kv storage.KVStore
	if cfg.Storage.Engine == "postgres" {
		kv, err = postgres.NewKVStore(cfg.Storage.PostgresDSN)
	} else {
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		kv, err = sqlite.NewKVStore(filepath.Join(cfg.Storage.DataPath, "diary.db"))
	}
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer kv.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the calendar and samples on first run
	store := diary.New(kv)
	err = store.InitializeIfFirstRun(ctx, func(done, total int) {
		log.Printf("Generating days: %d/%d", done, total)
	})
	if err != nil {
		log.Fatalf("Failed to initialize diary: %v", err)
	}

	// Wire the remote backup service
	remote := backup.NewDriveStore(cfg.Backup.RemoteURL)
	auth := backup.NewStaticAuthorizer(cfg.Backup.Token)
	backupSvc := backup.NewService(kv, remote, auth, cfg.Backup.FolderName, cfg.Backup.FileName)

	// Start server
	addr, _ := server.Start(ctx, cfg, store, backupSvc)
	log.Printf("Diary running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
