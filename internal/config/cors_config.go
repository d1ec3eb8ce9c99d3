package config

import (
	"net/url"
	"sort"
	"strings"
)

const allowedOriginsKey = "cors.allowed_origins"

type Cors struct {
	src source
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins returns the configured CORS origins. The UI address is
// always allowed so the dashboard can call /session with credentials.
func (c Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range c.src.strings(allowedOriginsKey) {
		origins[strings.TrimSpace(o)] = nullValue{}
	}
	if origin := originOf((HTTP{c.src}).GetUIAddress()); origin != "" {
		origins[origin] = nullValue{}
	}
	return origins
}

// originOf reduces a URL to scheme://host[:port], the form browsers send.
func originOf(address string) string {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(address, "/")
	}
	return u.Scheme + "://" + u.Host
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
