package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// AccessHeader carries the access token on responses and requests.
	AccessHeader = "access"
	// RefreshCookie is the HttpOnly cookie holding the refresh token.
	RefreshCookie = "refresh"
)

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetPair writes the access token header and the refresh cookie.
func (m *Manager) SetPair(c *gin.Context, access string, refresh string, rexp time.Time) {
	c.Header(AccessHeader, access)
	m.SetRefresh(c, refresh, rexp)
}

func (m *Manager) SetRefresh(c *gin.Context, refresh string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookie, refresh, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

// Refresh returns the refresh cookie value or "".
func (m *Manager) Refresh(c *gin.Context) string {
	v, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookie, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
