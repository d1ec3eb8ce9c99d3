package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/timely-server/internal/config"
)

// BuildCookie returns the session cookie for token. The domain is the
// server's externally visible address; any scheme or port is dropped since
// cookie domains carry neither. Max-Age is rounded down to whole seconds.
func BuildCookie(name, token, domain string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Domain:   cookieDomain(domain),
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   true,
	}
}

// ExpiredCookie tells the browser to drop the session cookie.
func ExpiredCookie(name, domain string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cookieDomain(domain),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	}
}

// cookieDomain falls back to a host-only cookie when the address cannot be a
// cookie domain. Validate rejects such addresses at startup.
func cookieDomain(address string) string {
	host, err := config.CookieDomain(address)
	if err != nil {
		return ""
	}
	return host
}
