// Package session carries the bearer token between the API and the browser
// in an HttpOnly cookie.
package session

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

const DefaultCookieName = "token"

// Config describes the cookie. SameSite=None is only valid on Secure
// cookies, so it is lowered to Lax when Secure is off.
type Config struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// Transport sets, reads and clears the session cookie.
type Transport struct {
	cfg Config
}

func New(cfg Config) *Transport {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.SameSite == http.SameSiteNoneMode && !cfg.Secure {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Transport{cfg: cfg}
}

// Set writes the issued token with a lifetime matching the token's own.
// Without a configured TTL the remaining time to expiry is rounded up.
func (t *Transport) Set(c echo.Context, token domain.IssuedToken) {
	maxAge := int(t.cfg.TTL / time.Second)
	if maxAge <= 0 && !token.ExpiresAt.IsZero() {
		maxAge = int(math.Ceil(time.Until(token.ExpiresAt).Seconds()))
	}
	c.SetCookie(t.cookie(token.Value, maxAge, token.ExpiresAt))
}

// Clear expires the cookie immediately.
func (t *Transport) Clear(c echo.Context) {
	c.SetCookie(t.cookie("", -1, time.Unix(0, 0)))
}

// Token returns the cookie value, if any.
func (t *Transport) Token(c echo.Context) (string, bool) {
	ck, err := c.Cookie(t.cfg.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (t *Transport) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     t.cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   t.cfg.Domain,
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: t.cfg.SameSite,
	}
}
