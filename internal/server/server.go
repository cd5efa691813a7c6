// Package server provides HTTP server initialization and lifecycle
// management for the diary's web API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mgalvez/undiacomohoy/internal/backup"
	"github.com/mgalvez/undiacomohoy/internal/config"
	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/lookup"
	"github.com/mgalvez/undiacomohoy/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with
// port 0) and the WebSocketHub carrying the change feed.
func Start(ctx context.Context, cfg *config.Config, store *diary.Store, backupSvc *backup.Service) (string, *handlers.WebSocketHub) {
	// Bind first: the WebSocket origin allowlist needs the port actually
	// in use, which differs from the configured one when it is 0.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	actualAddr := listener.Addr().String()

	mux := http.NewServeMux()

	// Create WebSocket hub
	wsHub := handlers.NewWebSocketHub(wsOrigins(cfg.Server.Host, actualAddr)...)
	go wsHub.Run()

	rateLimiter := handlers.NewRateLimiter(cfg.Security.RatePerSec, cfg.Security.RateBurst)

	diaryHandlers := handlers.NewDiaryHandlers(store, wsHub)
	csvHandlers := handlers.NewCSVHandlers(store, wsHub)
	settingsHandlers := handlers.NewSettingsHandlers(store, wsHub)
	lookupHandlers := handlers.NewLookupHandlers(
		lookup.NewPlaces(cfg.Lookup.PlacesURL),
		lookup.NewSongs(cfg.Lookup.SongsURL),
	)

	var backupHandlers *handlers.BackupHandlers
	if backupSvc != nil {
		backupHandlers = handlers.NewBackupHandlers(backupSvc, wsHub)
	}

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/days", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			diaryHandlers.ListDays(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/days/named", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			diaryHandlers.ListNamedDays(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/days/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			diaryHandlers.GetDay(w, r)
		case http.MethodPatch:
			diaryHandlers.RenameDay(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/days/{id}/memories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			diaryHandlers.ListDayMemories(w, r)
		case http.MethodPost:
			diaryHandlers.CreateMemory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/days/{id}/memories/{memoryId}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			diaryHandlers.UpdateMemory(w, r)
		case http.MethodDelete:
			diaryHandlers.DeleteMemory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			diaryHandlers.Search(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/memories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			diaryHandlers.ListByKind(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// CSV interchange
	apiMux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			csvHandlers.Export(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			csvHandlers.Import(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Settings, samples, images
	apiMux.HandleFunc("/api/settings/view-mode", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandlers.GetViewMode(w, r)
		case http.MethodPut:
			settingsHandlers.PutViewMode(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/settings/welcome", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandlers.GetWelcome(w, r)
		case http.MethodPost:
			settingsHandlers.PostWelcome(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/samples/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			settingsHandlers.ClearSamples(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/images/{ref}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			settingsHandlers.GetImage(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// External lookups
	apiMux.HandleFunc("/api/lookup/places", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			lookupHandlers.Places(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/lookup/songs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			lookupHandlers.Songs(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Remote backup
	if backupHandlers != nil {
		apiMux.HandleFunc("/api/backup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				backupHandlers.PostBackup(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/restore", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				backupHandlers.PostRestore(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/backup/info", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				backupHandlers.GetInfo(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}

	// Health endpoint — no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws", wsHub)

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}

// wsOrigins lists the host:port pairs browsers may open the change feed
// from: the configured host plus the loopback aliases, all on the bound
// port. A loopback server is reachable under either spelling.
func wsOrigins(host, actualAddr string) []string {
	_, port, err := net.SplitHostPort(actualAddr)
	if err != nil {
		return nil
	}

	hosts := []string{host, "localhost", "127.0.0.1"}
	seen := make(map[string]bool, len(hosts))
	origins := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		origins = append(origins, net.JoinHostPort(h, port))
	}
	return origins
}
