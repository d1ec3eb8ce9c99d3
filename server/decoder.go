package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

// maxBodyBytes bounds a login body; two short strings never come close.
const maxBodyBytes = 64 << 10

// Request is a decoded, typed inbound request. Exactly one is produced per
// successfully decoded HTTP request.
type Request interface {
	requestName() string
}

// LoginRequest carries the submitted credentials. It lives only for the
// request that produced it.
type LoginRequest struct {
	Username string
	Password string
}

// LogoutRequest ends the session identified by the cookie, if any.
type LogoutRequest struct {
	Token string
}

// SessionRequest asks for the session identified by the cookie.
type SessionRequest struct {
	Token string
}

func (LoginRequest) requestName() string   { return "login" }
func (LogoutRequest) requestName() string  { return "logout" }
func (SessionRequest) requestName() string { return "session" }

// DecodeError reports a request that does not match the expected shape.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", apperrors.ErrDecode, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrDecode, e.Reason)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{apperrors.ErrDecode, e.Err}
	}
	return []error{apperrors.ErrDecode}
}

// loginBody uses pointers so that a missing field can be told apart from an
// empty string.
type loginBody struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// Decoder turns HTTP requests into typed requests. It reads only the request
// and has no other side effects.
type Decoder struct {
	cookieName string
	validate   *validator.Validate
}

func NewDecoder(cookieName string) *Decoder {
	return &Decoder{
		cookieName: cookieName,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Decode produces exactly one Request, or a *DecodeError and no request.
func (d *Decoder) Decode(r *http.Request) (Request, error) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == RouteLogin:
		return d.decodeLogin(r.Body)
	case r.Method == http.MethodPost && r.URL.Path == RouteLogout:
		return LogoutRequest{Token: d.cookieToken(r)}, nil
	case (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == RouteSession:
		return SessionRequest{Token: d.cookieToken(r)}, nil
	}
	return nil, &DecodeError{Reason: fmt.Sprintf("no request type for %s %s", r.Method, r.URL.Path)}
}

func (d *Decoder) decodeLogin(body io.Reader) (Request, error) {
	if body == nil {
		return nil, &DecodeError{Reason: "empty body"}
	}

	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var b loginBody
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Reason: "empty body"}
		}
		return nil, &DecodeError{Reason: "invalid login body", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: "trailing data after login body"}
	}
	if err := d.validate.Struct(b); err != nil {
		return nil, &DecodeError{Reason: "username and password are required", Err: err}
	}

	return LoginRequest{Username: *b.Username, Password: *b.Password}, nil
}

func (d *Decoder) cookieToken(r *http.Request) string {
	c, err := r.Cookie(d.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
