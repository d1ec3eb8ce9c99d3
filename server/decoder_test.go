package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
	"github.com/jrsteele09/timely-server/server"
)

func TestDecoder_Login(t *testing.T) {
	d := server.NewDecoder("TSESSIONID")

	req, err := d.Decode(httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(`{"username":"test","password":"test1"}`)))
	require.NoError(t, err)
	require.Equal(t, server.LoginRequest{Username: "test", Password: "test1"}, req)

	// Empty strings are well formed; the authenticator rejects them.
	req, err = d.Decode(httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(` {"password":"","username":""} `)))
	require.NoError(t, err)
	require.Equal(t, server.LoginRequest{}, req)
}

func TestDecoder_LoginFailures(t *testing.T) {
	d := server.NewDecoder("TSESSIONID")

	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"username":"test"}`},
		{"missing username", `{"password":"test1"}`},
		{"null password", `{"username":"test","password":null}`},
		{"number password", `{"username":"test","password":1}`},
		{"unknown field", `{"username":"test","password":"test1","remember":true}`},
		{"two objects", `{"username":"test","password":"test1"}{"username":"x","password":"y"}`},
		{"trailing garbage", `{"username":"test","password":"test1"} x`},
		{"array", `[{"username":"test","password":"test1"}]`},
		{"truncated", `{"username":"test",`},
		{"not json", `username=test&password=test1`},
		{"empty", ``},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := d.Decode(httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(tt.body)))
			require.Nil(t, req)
			require.ErrorIs(t, err, apperrors.ErrDecode)

			var decodeErr *server.DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecoder_CookieRequests(t *testing.T) {
	d := server.NewDecoder("TSESSIONID")

	r := httptest.NewRequest(http.MethodPost, server.RouteLogout, nil)
	r.AddCookie(&http.Cookie{Name: "TSESSIONID", Value: "abc"})
	req, err := d.Decode(r)
	require.NoError(t, err)
	require.Equal(t, server.LogoutRequest{Token: "abc"}, req)

	req, err = d.Decode(httptest.NewRequest(http.MethodGet, server.RouteSession, nil))
	require.NoError(t, err)
	require.Equal(t, server.SessionRequest{}, req)
}

func TestDecoder_UnknownRoute(t *testing.T) {
	d := server.NewDecoder("TSESSIONID")
	req, err := d.Decode(httptest.NewRequest(http.MethodDelete, server.RouteLogin, nil))
	require.Nil(t, req)
	require.ErrorIs(t, err, apperrors.ErrDecode)
}
