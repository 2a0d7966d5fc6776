package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bidding "fruitbid/internal/biddingService"
	"fruitbid/internal/repository"
	"fruitbid/internal/server"
	"fruitbid/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testApp bundles a router with the service and store behind it
type testApp struct {
	router  *gin.Engine
	service *bidding.BiddingService
}

// SetupTestRouter initializes the router over a fresh SQLite file for integration testing.
func SetupTestRouter(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store, err := repository.Open(ctx, repository.DriverMattn, filepath.Join(t.TempDir(), "fruitbid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewManager(time.Hour)
	t.Cleanup(sessions.Close)

	service := bidding.NewBiddingService(store)
	router, err := server.SetupRouter(service, sessions)
	require.NoError(t, err)
	return testApp{router: router, service: service}
}

// ExecuteRequestAndParse executes a JSON request on the router and parses the envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// dataList returns the envelope's data as a list of objects
func dataList(t *testing.T, resp map[string]any) []map[string]any {
	t.Helper()
	raw, ok := resp["data"].([]any)
	require.True(t, ok, "data should be an array, got %T", resp["data"])

	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]any))
	}
	return out
}

// browser posts forms and keeps the session cookie between requests
type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name != session.CookieName {
			continue
		}
		if c.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	return w
}
