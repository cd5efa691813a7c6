// Package server_test exercises the HTTP server end to end against an
// in-memory store.
package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalvez/undiacomohoy/internal/config"
	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/server"
	"github.com/mgalvez/undiacomohoy/internal/storage/sqlite"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// startTestServer starts a server over an initialised in-memory diary
// and returns its base URL. Cleanup is registered with t.Cleanup.
func startTestServer(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	cfg.Server.Port = 0 // random port
	if cfg.Security.RatePerSec == 0 {
		cfg.Security.RatePerSec = 1000
		cfg.Security.RateBurst = 1000
	}

	kv, err := sqlite.NewKVStore(":memory:")
	require.NoError(t, err, "failed to create in-memory store")

	store := diary.New(kv)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, store.InitializeIfFirstRun(ctx, nil))
	_, err = store.ClearSampleMemories(ctx)
	require.NoError(t, err)

	addrChan := make(chan string, 1)
	go func() {
		addr, _ := server.Start(ctx, cfg, store, nil)
		addrChan <- addr
	}()

	var addr string
	select {
	case addr = <-addrChan:
	case <-time.After(5 * time.Second):
		cancel()
		_ = kv.Close()
		t.Fatal("server did not start within timeout")
	}

	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
		_ = kv.Close()
	})

	return "http://" + addr
}

func TestServer_HealthEndpoint(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	base := startTestServer(t, cfg)

	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "healthy")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestServer_DayAndMemoryFlow(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	base := startTestServer(t, cfg)

	// All 366 days exist from the start.
	resp, err := http.Get(base + "/api/days")
	require.NoError(t, err)
	var days []types.Day
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&days))
	resp.Body.Close()
	assert.Len(t, days, 366)

	// Rename a day.
	req, _ := http.NewRequest(http.MethodPatch, base+"/api/days/03-14",
		strings.NewReader(`{"name":"Día de Pi"}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var day types.Day
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&day))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Día de Pi", day.SpecialName)

	// Create a memory on it.
	resp, err = http.Post(base+"/api/days/03-14/memories", "application/json",
		bytes.NewReader([]byte(`{"kind":"Texto","year":1988,"text":{"description":"nació mi hermana"}}`)))
	require.NoError(t, err)
	var created types.Memory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1988, created.OriginalDate.Year)

	// Search finds it.
	resp, err = http.Get(base + "/api/search?q=hermana")
	require.NoError(t, err)
	var search struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&search))
	resp.Body.Close()
	assert.Equal(t, 1, search.Total)

	// Delete it; the day listing shows it gone.
	req, _ = http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/days/03-14/memories/%s", base, created.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base + "/api/days/03-14/memories")
	require.NoError(t, err)
	var memories []types.Memory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&memories))
	resp.Body.Close()
	assert.Empty(t, memories)
}

func TestServer_UnknownDayIs404(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	base := startTestServer(t, cfg)

	resp, err := http.Get(base + "/api/days/13-40/memories")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CSVExportRoundTrip(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	base := startTestServer(t, cfg)

	resp, err := http.Post(base+"/api/import", "text/csv",
		strings.NewReader("2020,03,14,Texto,\"Hello, world\",\n"))
	require.NoError(t, err)
	var result struct {
		Imported int `json:"imported"`
		Errors   int `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Errors)

	resp, err = http.Get(base + "/api/export")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "AÑO,MES,DÍA,TIPO,CONTENIDO,DATOS_EXTRA"))
	assert.Contains(t, string(body), `"Hello, world"`)
}

func TestServer_WebSocketOriginFollowsBoundPort(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	base := startTestServer(t, cfg)
	addr := strings.TrimPrefix(base, "http://")

	upgrade := func(origin string) int {
		req, err := http.NewRequest(http.MethodGet, base+"/ws", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	// The server runs on a random port here; the allowlist must track the
	// port actually bound, not a fixed default. The handshake itself still
	// fails for a plain HTTP client, but never with a 403.
	assert.NotEqual(t, http.StatusForbidden, upgrade("http://"+addr))

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusForbidden, upgrade("http://localhost:"+port))

	assert.Equal(t, http.StatusForbidden, upgrade("http://localhost:1"))
}

func TestServer_ProductionModeRequiresToken(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secreto"
	base := startTestServer(t, cfg)

	resp, err := http.Get(base + "/api/days")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, base+"/api/days", nil)
	req.Header.Set("Authorization", "Bearer secreto")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open for monitoring.
	resp, err = http.Get(base + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
