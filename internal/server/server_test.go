package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bidding "fruitbid/internal/biddingService"
	"fruitbid/internal/repository"
	"fruitbid/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(time.Hour)
	t.Cleanup(sessions.Close)

	router, err := SetupRouter(bidding.NewBiddingService(repository.NewMemoryRepo()), sessions)
	require.NoError(t, err)
	return router
}

func TestSetupRouter_Routes(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/marketplace", http.StatusOK},
		{http.MethodGet, "/my-bids", http.StatusOK},
		{http.MethodGet, "/admin/lots/new", http.StatusOK},
		{http.MethodGet, "/api/lots", http.StatusOK},
		{http.MethodGet, "/api/lots/1", http.StatusNotFound},
		{http.MethodGet, "/api/users/Alice/bids", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequestLoggerMiddleware_RequestID(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, router, time.Second) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr().String())
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var env map[string]any
	require.NoError(t, json.Unmarshal(body, &env))
	require.Equal(t, "healthy", env["message"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
