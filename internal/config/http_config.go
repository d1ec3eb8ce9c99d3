package config

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

const (
	serverAddressKey = "http.server_address"
	uiAddressKey     = "http.ui_address"
)

type HTTP struct {
	src source
}

var _ HTTPConfig = HTTP{}

// GetServerAddress is the externally visible host of this server. It is used
// as the Domain of the session cookie.
func (h HTTP) GetServerAddress() string {
	return h.src.str(serverAddressKey, "localhost")
}

// GetUIAddress is where a successful login is redirected to.
func (h HTTP) GetUIAddress() string {
	return h.src.str(uiAddressKey, "http://localhost:3000")
}

// CookieDomain reduces a server address to the host a cookie Domain may carry.
// A scheme, port or trailing slash is dropped; anything else that is not a
// valid cookie domain, such as a path, is an error.
func CookieDomain(address string) (string, error) {
	host := strings.TrimSpace(address)
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", apperrors.Wrapf(err, "[config CookieDomain] parse %q", address)
		}
		if u.Path != "" && u.Path != "/" {
			return "", apperrors.Wrapf(apperrors.ErrInvalidConfig, "[config CookieDomain] %q has a path", address)
		}
		host = u.Hostname()
	} else if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidConfig, "[config CookieDomain] %q has no host", address)
	}

	check := http.Cookie{Name: "domain", Value: "check", Domain: host}
	if err := check.Valid(); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrInvalidConfig, "[config CookieDomain] %q: %v", address, err)
	}
	return host, nil
}
