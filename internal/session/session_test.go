package session

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fruitbid/internal/biddingerrors"
	model "fruitbid/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestManager_StartGetEnd(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 10, 8, 9, 0, 0, 0, time.UTC)}
	m := NewManager(time.Hour, WithClock(clock.Now))
	t.Cleanup(m.Close)

	s := m.Start(model.User{ID: 4, Name: "Alice", Phone: "98765"})
	require.NotEmpty(t, s.ID)
	require.Equal(t, "Alice", s.UserName)
	require.Equal(t, clock.Now().Add(time.Hour), s.ExpiresAt)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = m.Get("unknown")
	require.ErrorIs(t, err, biddingerrors.ErrSessionNotFound)

	m.End(s.ID)
	m.End(s.ID)
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, biddingerrors.ErrSessionNotFound)
}

func TestManager_Expiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 10, 8, 9, 0, 0, 0, time.UTC)}
	m := NewManager(time.Hour, WithClock(clock.Now), WithJanitorInterval(5*time.Millisecond))
	t.Cleanup(m.Close)

	s := m.Start(model.User{Name: "Bob"})
	clock.Advance(time.Hour)

	_, err := m.Get(s.ID)
	require.ErrorIs(t, err, biddingerrors.ErrSessionNotFound)

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := NewManager(0)
	require.Equal(t, DefaultTTL, m.TTL())
	m.Close()
	m.Close()
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	m := NewManager(time.Hour)
	t.Cleanup(m.Close)
	s := m.Start(model.User{ID: 1, Name: "Alice"})

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/who", func(c *gin.Context) {
		if got, ok := FromContext(c); ok {
			c.String(http.StatusOK, got.UserName)
			return
		}
		c.String(http.StatusOK, "nobody")
	})
	router.POST("/login", func(c *gin.Context) {
		SetCookie(c, m.Start(model.User{ID: 2, Name: "Bob"}), m)
		c.Status(http.StatusNoContent)
	})
	router.POST("/logout", func(c *gin.Context) {
		ClearCookie(c)
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{name: "no_cookie", want: "nobody"},
		{name: "valid_cookie", cookie: &http.Cookie{Name: CookieName, Value: s.ID}, want: "Alice"},
		{name: "stale_cookie", cookie: &http.Cookie{Name: CookieName, Value: "gone"}, want: "nobody"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Body.String())
		})
	}

	t.Run("set_and_clear_cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, CookieName, cookies[0].Name)
		require.True(t, cookies[0].HttpOnly)

		got, err := m.Get(cookies[0].Value)
		require.NoError(t, err)
		require.Equal(t, "Bob", got.UserName)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
		cookies = w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Negative(t, cookies[0].MaxAge)
	})
}
