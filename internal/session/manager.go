package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ultracivic/backend/internal/config"
)

// DefaultCookieName is the browser cookie carrying the session token.
const DefaultCookieName = "ultracivic_session"

const cookiePath = "/"

// Manager reads and writes the session cookie. The cookie is HttpOnly
// and SameSite=Lax; the Secure attribute follows deployment config so
// local development over plain HTTP keeps working.
type Manager struct {
	name   string
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{name: DefaultCookieName, secure: cfg.AuthCookieSecure}
}

func (m *Manager) CookieName() string { return m.name }

// ReadToken extracts the session token from the request, reporting
// false when the cookie is absent or blank.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.name)
	if err != nil || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

// Set writes the session cookie with a max-age matching the session's
// remaining lifetime.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	m.write(c, token, int(max(time.Until(expiresAt), 0).Seconds()))
}

// Clear expires the cookie immediately.
func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, cookiePath, "", m.secure, true)
}
