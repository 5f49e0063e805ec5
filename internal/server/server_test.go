package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/flipper/internal/config"
	"github.com/aristath/flipper/internal/di"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		DataDir:               t.TempDir(),
		WatchlistFile:         "watchlist.txt",
		Port:                  8085,
		HypixelBaseURL:        config.DefaultHypixelBaseURL,
		LowestBINURL:          config.DefaultLowestBINURL,
		MojangBaseURL:         config.DefaultMojangBaseURL,
		NEURepoURL:            config.DefaultNEURepoURL,
		PollInterval:          15 * time.Second,
		RetryBackoff:          5 * time.Second,
		HypixelRatePerSec:     2,
		BazaarTaxRate:         0.0125,
		AuctionTaxRate:        0.035,
		AutoAcceptCorrections: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	container, jobs, err := di.Wire(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		container.Loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		container.Close()
	})

	return New(Config{
		Log:       zerolog.Nop(),
		Config:    cfg,
		Port:      cfg.Port,
		Container: container,
		Jobs:      jobs,
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "flipper", response["service"])
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "system status", method: http.MethodGet, path: "/api/system/status", expectedStatus: http.StatusOK},
		{name: "session", method: http.MethodGet, path: "/api/session", expectedStatus: http.StatusOK},
		{name: "stop idle session", method: http.MethodDelete, path: "/api/session", expectedStatus: http.StatusConflict},
		{name: "budget", method: http.MethodPut, path: "/api/budget", body: `{"budget":"1k"}`, expectedStatus: http.StatusOK},
		{name: "history", method: http.MethodGet, path: "/api/history", expectedStatus: http.StatusOK},
		{name: "watchlist", method: http.MethodGet, path: "/api/watchlist", expectedStatus: http.StatusOK},
		{name: "resolve", method: http.MethodGet, path: "/api/resolve?q=diamond", expectedStatus: http.StatusOK},
		{name: "profiles without key", method: http.MethodGet, path: "/api/profiles?username=Steve", expectedStatus: http.StatusServiceUnavailable},
		{name: "run cleanup job", method: http.MethodPost, path: "/api/system/jobs/client_data_cleanup", expectedStatus: http.StatusOK},
		{name: "unknown job", method: http.MethodPost, path: "/api/system/jobs/nope", expectedStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
