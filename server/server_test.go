package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/timely-server/auth"
	"github.com/jrsteele09/timely-server/internal/config"
	"github.com/jrsteele09/timely-server/server"
	"github.com/jrsteele09/timely-server/sessions"
	"github.com/jrsteele09/timely-server/users"
)

const (
	testServerAddress = "localhost:54322"
	testUIAddress     = "http://localhost:3000/grafana"
)

type fixture struct {
	config config.Config
	cache  *sessions.Cache
	server *server.Server
}

func testConfig(t *testing.T, overrides map[string]any) config.Config {
	t.Helper()
	hash, err := users.HashPassword("test1")
	require.NoError(t, err)

	values := map[string]any{
		"app": map[string]any{"env": "TEST"},
		"http": map[string]any{
			"server_address": testServerAddress,
			"ui_address":     testUIAddress,
		},
		"auth": map[string]any{
			"backend": "static",
			"static": map[string]any{
				"users": []map[string]any{{
					"username":       "test",
					"password_hash":  hash,
					"authorizations": []string{"A", "B"},
				}},
			},
		},
	}
	for k, v := range overrides {
		values[k] = v
	}
	cfg := config.NewFromMap(values)
	require.NoError(t, cfg.Validate())
	return cfg
}

func newFixture(t *testing.T, cfg config.Config, authenticator auth.Authenticator) *fixture {
	t.Helper()
	if authenticator == nil {
		a, closer, err := server.NewAuthenticator(context.Background(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer.Close() })
		authenticator = a
	}

	cache := sessions.New(sessions.WithMaxAge(cfg.GetMaxSessionAge()))
	s, err := server.New(cfg, authenticator, cache)
	require.NoError(t, err)
	return &fixture{config: cfg, cache: cache, server: s}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", config.DefaultCookieName)
	return nil
}

func TestLogin_ValidCredentials(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	rec := f.do(loginRequest(`{"username":"test","password":"test1"}`))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	require.Equal(t, testUIAddress, rec.Header().Get("Location"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	cookie := sessionCookie(t, rec)
	require.Equal(t, "localhost", cookie.Domain)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 86400, cookie.MaxAge)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.True(t, sessions.ValidToken(cookie.Value))

	session, ok := f.cache.Lookup(cookie.Value)
	require.True(t, ok)
	require.Equal(t, "test", session.Principal.Username)
	require.Equal(t, []string{"A", "B"}, session.Principal.Authorizations)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	rec := f.do(loginRequest(`{"username":"test","password":"test2"}`))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Empty(t, rec.Header().Values("Set-Cookie"))
	require.Zero(t, f.cache.Size())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, http.StatusUnauthorized, body["code"])
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	rec := f.do(loginRequest(`{"username":"nobody","password":"test1"}`))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestLogin_EachLoginGetsANewSession(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	first := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))
	second := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))

	require.NotEqual(t, first.Value, second.Value)
	require.Equal(t, 2, f.cache.Size())
}

func TestLogin_ConfiguredMaxAge(t *testing.T) {
	cfg := testConfig(t, map[string]any{"session": map[string]any{"max_age": 3600}})
	f := newFixture(t, cfg, nil)

	cookie := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))
	require.Equal(t, 3600, cookie.MaxAge)

	require.NoError(t, f.cache.SetMaxAge(10*time.Second))
	cookie = sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))
	require.Equal(t, 10, cookie.MaxAge)

	f.cache.ResetMaxAge()
	cookie = sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))
	require.Equal(t, 86400, cookie.MaxAge)
}

func TestLogin_DecodeFailure(t *testing.T) {
	var calls atomic.Int32
	authenticator := auth.AuthenticatorFunc(func(context.Context, string, string) (auth.Principal, error) {
		calls.Add(1)
		return auth.Principal{Username: "test"}, nil
	})
	f := newFixture(t, testConfig(t, nil), authenticator)

	for _, body := range []string{
		`{"username":"test"}`,
		`{"username":"test","password":1}`,
		`{"username":"test","password":"test1"`,
		`not json`,
		``,
	} {
		rec := f.do(loginRequest(body))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"), body)
		require.Empty(t, rec.Header().Values("Set-Cookie"), body)
	}
	require.Zero(t, calls.Load(), "decode failures never reach the authenticator")
	require.Zero(t, f.cache.Size())
}

func TestLogin_DecodeFailureMessage(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	tests := []struct {
		body string
		want string
	}{
		{`{"username":"test","password":1}`, "invalid login body"},
		{`{"username":"test","password":"x","a":1}`, "invalid login body"},
		{`{"username":"test"}`, "username and password are required"},
		{`{"username":"test","password":"test1"} {}`, "trailing data after login body"},
		{``, "empty body"},
	}
	for _, tt := range tests {
		body, want := tt.body, tt.want
		rec := f.do(loginRequest(body))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)

		var resp struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), body)
		require.Equal(t, want, resp.Message, body)
		require.NotContains(t, rec.Body.String(), "json:", body)
		require.NotContains(t, rec.Body.String(), "Key:", body)
	}
}

func TestLogin_BackendUnavailable(t *testing.T) {
	authenticator := auth.AuthenticatorFunc(func(context.Context, string, string) (auth.Principal, error) {
		return auth.Principal{}, auth.ErrBackendUnavailable
	})
	f := newFixture(t, testConfig(t, nil), authenticator)

	rec := f.do(loginRequest(`{"username":"test","password":"test1"}`))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Empty(t, rec.Header().Values("Set-Cookie"))
	require.Zero(t, f.cache.Size())
}

func TestLogin_ClientGoneBeforeSessionCreated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	authenticator := auth.AuthenticatorFunc(func(context.Context, string, string) (auth.Principal, error) {
		cancel()
		return auth.Principal{Username: "test"}, nil
	})
	f := newFixture(t, testConfig(t, nil), authenticator)

	req := loginRequest(`{"username":"test","password":"test1"}`).WithContext(ctx)
	rec := f.do(req)

	require.Empty(t, rec.Header().Values("Set-Cookie"))
	require.Zero(t, f.cache.Size())
}

func TestLogout(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)
	cookie := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))

	req := httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec := f.do(req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	_, ok := f.cache.Lookup(cookie.Value)
	require.False(t, ok)

	// Logging out again is harmless.
	rec = f.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSession(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)
	cookie := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))

	req := httptest.NewRequest(http.MethodGet, server.RouteSession, nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Username       string    `json:"username"`
		Authorizations []string  `json:"authorizations"`
		ExpiresAt      time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "test", body.Username)
	require.Equal(t, []string{"A", "B"}, body.Authorizations)
	require.NotContains(t, rec.Body.String(), cookie.Value, "the token is never echoed")

	rec = f.do(httptest.NewRequest(http.MethodGet, server.RouteSession, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterQueryHandler(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)
	f.server.RegisterQueryHandler("GET /api/query", func(w http.ResponseWriter, r *http.Request) {
		session, ok := server.SessionFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(session.Principal.Username))
	})
	f.server.RegisterQueryHandler("GET /api/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/query", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := sessionCookie(t, f.do(loginRequest(`{"username":"test","password":"test1"}`)))

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/panic", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec = f.do(req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"security": map[string]any{
			"rate_limit": map[string]any{"enabled": true, "per_minute": 1, "burst": 2},
		},
	})
	f := newFixture(t, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := f.do(loginRequest(`{"username":"test","password":"test2"}`))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(loginRequest(`{"username":"test","password":"test1"}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Empty(t, rec.Header().Values("Set-Cookie"))

	other := loginRequest(`{"username":"test","password":"test1"}`)
	other.RemoteAddr = "198.51.100.7:4000"
	rec = f.do(other)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code, "limits are per client address")
}

func TestCorsPreflight(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)

	req := httptest.NewRequest(http.MethodOptions, server.RouteLogin, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := f.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, server.RouteLogin, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = f.do(req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, testConfig(t, nil), nil)
	f.do(loginRequest(`{"username":"test","password":"test1"}`))
	f.do(loginRequest(`{"username":"test","password":"test2"}`))

	rec := f.do(httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"sessions":1`)

	rec = f.do(httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	require.Contains(t, metrics, `timely_login_attempts_total{outcome="success"} 1`)
	require.Contains(t, metrics, `timely_login_attempts_total{outcome="rejected"} 1`)
	require.Contains(t, metrics, `timely_sessions_active 1`)
	require.Contains(t, metrics, `timely_http_request_duration_seconds`)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	cfg := testConfig(t, nil)
	cache := sessions.New()
	authenticator := auth.AuthenticatorFunc(func(context.Context, string, string) (auth.Principal, error) {
		return auth.Principal{}, errors.New("unused")
	})

	_, err := server.New(nil, authenticator, cache)
	require.Error(t, err)
	_, err = server.New(cfg, nil, cache)
	require.Error(t, err)
	_, err = server.New(cfg, authenticator, nil)
	require.Error(t, err)
}
