package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/auth-gateway/internal/logger"
	"go.uber.org/zap"
)

// CookieOptions controls how the session reference is handed to the browser.
// Login and logout must use the same options or the browser keeps the old cookie.
type CookieOptions struct {
	Name     string
	Domain   string
	SameSite string
	Secure   bool
	TTL      time.Duration
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		logger.Warn("Unknown SameSite value, using Lax", zap.String("same_site", s))
		return http.SameSiteLaxMode
	}
}

// buildCookie returns the cookie carrying value
func (o CookieOptions) buildCookie(value string, now time.Time) *http.Cookie {
	ss := parseSameSite(o.SameSite)
	if ss == http.SameSiteNoneMode && !o.Secure {
		logger.Warn("SameSite=None without Secure; browsers may reject the session cookie",
			zap.String("cookie", o.Name))
	}
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		Expires:  now.Add(o.TTL).UTC(),
		MaxAge:   int(o.TTL.Seconds()),
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: ss,
	}
}

// buildDeletionCookie returns an expired cookie matching buildCookie's attributes
func (o CookieOptions) buildDeletionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    "",
		Path:     "/",
		Domain:   o.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(o.SameSite),
	}
}
