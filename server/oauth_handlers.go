package server

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/auth"
	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/users"
)

// authorize validates the authorization request and renders the consent page.
func (s *Server) authorize(c echo.Context) error {
	params := authorizeParams(c.QueryParam)

	pending, err := s.deps.Auth.Authorize(c.Request().Context(), params)
	if err != nil {
		return s.authorizeFailure(c, err)
	}
	return s.renderConsent(c, pending, "")
}

// consent resolves the resource owner's decision. The authorize parameters
// travel through the form as hidden fields and are re-validated in full.
func (s *Server) consent(c echo.Context) error {
	ctx := c.Request().Context()
	params := authorizeParams(c.FormValue)

	pending, err := s.deps.Auth.Authorize(ctx, params)
	if err != nil {
		return s.authorizeFailure(c, err)
	}

	approved := c.FormValue("action") == "approve"
	code, err := s.deps.Auth.Consent(ctx, pending, c.FormValue("email"), c.FormValue("password"), approved)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return s.renderConsent(c, pending, "Invalid email or password.")
		}
		return s.authorizeFailure(c, err)
	}

	target, err := url.Parse(params.RedirectURI)
	if err != nil {
		return errors.Wrap(err, "[Server.consent] parse redirect_uri")
	}
	q := target.Query()
	q.Set("code", code)
	if params.State != "" {
		q.Set("state", params.State)
	}
	target.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, target.String())
}

// authorizeFailure renders pre-validation failures as an error page and
// post-validation ones as an error redirect. An untrusted redirect_uri never
// receives anything.
func (s *Server) authorizeFailure(c echo.Context, err error) error {
	var redirectErr *auth.RedirectError
	if errors.As(err, &redirectErr) {
		return c.Redirect(http.StatusFound, redirectErr.URL())
	}
	if errors.Is(err, auth.ErrUnknownClient) || errors.Is(err, auth.ErrRedirectURIMismatch) {
		return s.renderAuthorizeError(c, err.Error())
	}
	return errors.Wrap(err, "[Server.authorizeFailure]")
}

// tokenEndpoint implements POST /oauth/token. Client credentials arrive
// either in the form body or as HTTP basic auth.
func (s *Server) tokenEndpoint(c echo.Context) error {
	req := &oauthmodel.TokenRequest{
		GrantType:    c.FormValue("grant_type"),
		ClientID:     c.FormValue("client_id"),
		ClientSecret: c.FormValue("client_secret"),
		Code:         c.FormValue("code"),
		RedirectURI:  c.FormValue("redirect_uri"),
		CodeVerifier: c.FormValue("code_verifier"),
		RefreshToken: c.FormValue("refresh_token"),
		Scope:        c.FormValue("scope"),
		Username:     c.FormValue("username"),
		Password:     c.FormValue("password"),
	}
	if id, secret, ok := c.Request().BasicAuth(); ok {
		// RFC 6749 2.3.1: basic auth credentials are form-urlencoded.
		if decoded, err := url.QueryUnescape(id); err == nil {
			id = decoded
		}
		if decoded, err := url.QueryUnescape(secret); err == nil {
			secret = decoded
		}
		req.ClientID = id
		req.ClientSecret = secret
	}

	resp, err := s.deps.Auth.Token(c.Request().Context(), req)
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	c.Response().Header().Set("Pragma", "no-cache")
	return c.JSON(http.StatusOK, resp)
}

// introspect implements RFC 7662. Invalid tokens answer active:false, not an
// error.
func (s *Server) introspect(c echo.Context) error {
	raw := c.FormValue("token")
	if raw == "" {
		return badRequest("token is required")
	}

	resp, err := s.deps.Tokens.Introspect(c.Request().Context(), raw)
	if err != nil {
		return errors.Wrap(err, "[Server.introspect]")
	}
	return c.JSON(http.StatusOK, resp)
}

// revoke implements RFC 7009: the endpoint answers 200 whether or not the
// presented token meant anything.
func (s *Server) revoke(c echo.Context) error {
	raw := c.FormValue("token")
	if raw == "" {
		return badRequest("token is required")
	}

	if err := s.deps.Tokens.Revoke(c.Request().Context(), raw); err != nil {
		return errors.Wrap(err, "[Server.revoke]")
	}
	return c.NoContent(http.StatusOK)
}

type registerUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) registerUser(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	user, err := s.deps.Users.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return newAPIError(http.StatusConflict, "email_taken", "an account with this email already exists")
		}
		return badRequest(err.Error())
	}
	return c.JSON(http.StatusCreated, user)
}

func authorizeParams(value func(string) string) *oauthmodel.AuthorizeParameters {
	return &oauthmodel.AuthorizeParameters{
		ResponseType:        oauthmodel.ResponseType(value("response_type")),
		ClientID:            value("client_id"),
		RedirectURI:         value("redirect_uri"),
		Scope:               value("scope"),
		State:               value("state"),
		CodeChallenge:       value("code_challenge"),
		CodeChallengeMethod: oauthmodel.ChallengeMethod(value("code_challenge_method")),
	}
}
