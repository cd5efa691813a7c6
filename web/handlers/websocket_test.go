package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	a := &MockClient{SendChan: make(chan []byte, 16)}
	b := &MockClient{SendChan: make(chan []byte, 16)}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(Event{Type: "day.renamed", DayID: "01-01"})

	for _, client := range []*MockClient{a, b} {
		select {
		case raw := <-client.SendChan:
			var ev Event
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, "day.renamed", ev.Type)
			assert.Equal(t, "01-01", ev.DayID)
		case <-time.After(2 * time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubOriginAllowlistFollowsConfiguration(t *testing.T) {
	hub := NewWebSocketHub("localhost:8080", "127.0.0.1:8080")

	upgrade := func(origin string) int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		hub.ServeHTTP(rec, req)
		return rec.Code
	}

	// A matching origin passes the check; the handshake then fails on the
	// plain HTTP request, but never with a 403.
	assert.NotEqual(t, http.StatusForbidden, upgrade("http://localhost:8080"))
	assert.NotEqual(t, http.StatusForbidden, upgrade("http://127.0.0.1:8080"))
	assert.NotEqual(t, http.StatusForbidden, upgrade(""), "non-browser clients send no Origin")

	assert.Equal(t, http.StatusForbidden, upgrade("http://localhost:6464"))
	assert.Equal(t, http.StatusForbidden, upgrade("http://evil.example"))
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 16)}
	hub.Register(client)
	hub.Unregister(client)

	// The hub closes the send channel on unregister.
	select {
	case _, open := <-client.SendChan:
		assert.False(t, open, "send channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubDisconnectsSlowClients(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	slow := &MockClient{SendChan: make(chan []byte)} // unbuffered, never read
	hub.Register(slow)

	hub.Broadcast(Event{Type: "memory.created"})

	// The full channel forces a disconnect; its send channel gets closed.
	select {
	case _, open := <-slow.SendChan:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not disconnected")
	}
}
