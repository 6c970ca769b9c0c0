package auth

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/oauthmodel"
)

// Errors raised before the redirect URI is trusted. These render an error
// page instead of redirecting, so a forged redirect_uri never receives
// anything.
var (
	ErrUnknownClient       = errors.New("unknown client")
	ErrRedirectURIMismatch = errors.New("redirect_uri not registered for client")
)

// RedirectError is an authorize-endpoint failure raised after the client and
// redirect URI checked out. It is delivered to the client by redirecting with
// the standard error parameters, echoing state.
type RedirectError struct {
	RedirectURI string
	Code        oauthmodel.ErrorCode
	Description string
	State       string
}

func newRedirectError(redirectURI, state string, code oauthmodel.ErrorCode, description string) *RedirectError {
	return &RedirectError{
		RedirectURI: redirectURI,
		Code:        code,
		Description: description,
		State:       state,
	}
}

func (e *RedirectError) Error() string {
	return string(e.Code) + ": " + e.Description
}

// URL builds the redirect target carrying error, error_description and state.
func (e *RedirectError) URL() string {
	target, err := url.Parse(e.RedirectURI)
	if err != nil {
		return e.RedirectURI
	}
	q := target.Query()
	q.Set("error", string(e.Code))
	if e.Description != "" {
		q.Set("error_description", e.Description)
	}
	if e.State != "" {
		q.Set("state", e.State)
	}
	target.RawQuery = q.Encode()
	return target.String()
}
