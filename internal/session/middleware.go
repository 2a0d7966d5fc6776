package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session token
const CookieName = "fruitbid_session"

const contextKey = "fruitbid.session"

// Middleware loads the session named by the cookie, if any, into the gin context
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err == nil && token != "" {
			if s, err := m.Get(token); err == nil {
				c.Set(contextKey, s)
			}
		}
		c.Next()
	}
}

// FromContext returns the session loaded by Middleware
func FromContext(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// SetCookie writes the session token and makes it visible to the rest of the request
func SetCookie(c *gin.Context, s Session, m *Manager) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, s.ID, int(m.TTL().Seconds()), "/", "", false, true)
	c.Set(contextKey, s)
}

// ClearCookie expires the session cookie
func ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
