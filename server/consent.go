package server

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/auth"
)

var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize {{.ClientName}}</title></head>
<body>
  <h1>{{.ClientName}} wants access to your account</h1>
  {{if .Message}}<p class="error">{{.Message}}</p>{{end}}
  <p>Requested permissions:</p>
  <ul>
    {{range .Scopes}}<li>{{.}}</li>{{end}}
  </ul>
  <form method="POST" action="/oauth/consent">
    <input type="hidden" name="response_type" value="{{.Params.ResponseType}}">
    <input type="hidden" name="client_id" value="{{.Params.ClientID}}">
    <input type="hidden" name="redirect_uri" value="{{.Params.RedirectURI}}">
    <input type="hidden" name="scope" value="{{.Params.Scope}}">
    <input type="hidden" name="state" value="{{.Params.State}}">
    <input type="hidden" name="code_challenge" value="{{.Params.CodeChallenge}}">
    <input type="hidden" name="code_challenge_method" value="{{.Params.CodeChallengeMethod}}">
    <label>Email <input type="email" name="email" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit" name="action" value="approve">Approve</button>
    <button type="submit" name="action" value="deny">Deny</button>
  </form>
</body>
</html>
`))

var authorizeErrorTemplate = template.Must(template.New("authorize_error").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization error</title></head>
<body>
  <h1>Authorization error</h1>
  <p>{{.Message}}</p>
</body>
</html>
`))

type consentPage struct {
	ClientName string
	Scopes     []string
	Params     struct {
		ResponseType        string
		ClientID            string
		RedirectURI         string
		Scope               string
		State               string
		CodeChallenge       string
		CodeChallengeMethod string
	}
	Message string
}

func (s *Server) renderConsent(c echo.Context, pending *auth.PendingAuthorization, message string) error {
	page := consentPage{
		ClientName: pending.Client.Name,
		Scopes:     pending.Scopes.Slice(),
		Message:    message,
	}
	page.Params.ResponseType = string(pending.Params.ResponseType)
	page.Params.ClientID = pending.Params.ClientID
	page.Params.RedirectURI = pending.Params.RedirectURI
	page.Params.Scope = pending.Params.Scope
	page.Params.State = pending.Params.State
	page.Params.CodeChallenge = pending.Params.CodeChallenge
	page.Params.CodeChallengeMethod = string(pending.Params.CodeChallengeMethod)

	return s.renderHTML(c, http.StatusOK, consentTemplate, page)
}

func (s *Server) renderAuthorizeError(c echo.Context, message string) error {
	return s.renderHTML(c, http.StatusBadRequest, authorizeErrorTemplate, struct{ Message string }{message})
}

func (s *Server) renderHTML(c echo.Context, status int, tmpl *template.Template, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	if err := tmpl.Execute(c.Response(), data); err != nil {
		return errors.Wrap(err, "[Server.renderHTML]")
	}
	return nil
}
