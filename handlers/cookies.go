package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refreshToken"

// CookieConfig controls the session cookies. Secure is set in production.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", cc.Secure, true)
}

func (cc CookieConfig) setSession(c *gin.Context, accessToken, refreshToken string) {
	cc.set(c, accessCookieName, accessToken, cc.AccessTTL)
	cc.set(c, refreshCookieName, refreshToken, cc.RefreshTTL)
}

func (cc CookieConfig) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookieName, "", -1, "/", "", cc.Secure, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", cc.Secure, true)
}
