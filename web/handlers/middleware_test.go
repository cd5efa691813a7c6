package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalvez/undiacomohoy/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_DevelopmentModeAllowsAll(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.SecurityMode = "development"

	rec := httptest.NewRecorder()
	RequireAuth(okHandler(), cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/days", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_ProductionMode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secreto"

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(okHandler(), cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/days", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		// Middleware errors use the same envelope as the handlers.
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "unauthorized", body.Error)
		assert.Equal(t, http.StatusText(http.StatusUnauthorized), body.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/days", nil)
		req.Header.Set("Authorization", "Bearer equivocado")
		rec := httptest.NewRecorder()
		RequireAuth(okHandler(), cfg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/days", nil)
		req.Header.Set("Authorization", "Bearer secreto")
		rec := httptest.NewRecorder()
		RequireAuth(okHandler(), cfg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1.0, 2)
	handler := RateLimitMiddleware(okHandler(), rl)

	codes := make([]int, 0, 4)
	var lastBody []byte
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/days", nil))
		codes = append(codes, rec.Code)
		lastBody = rec.Body.Bytes()
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes[2:], http.StatusTooManyRequests)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(lastBody, &body))
	assert.Equal(t, "rate limit exceeded", body.Error)
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), body.Code)
}
