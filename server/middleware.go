package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cleanhq/cleaner/scopes"
)

const principalKey = "principal"

// Principal is the authenticated caller of a resource endpoint. For
// client-credentials tokens UserID equals ClientID.
type Principal struct {
	UserID   string
	ClientID string
	Scopes   scopes.Set
}

// currentPrincipal returns the principal set by requireAuth, or nil.
func currentPrincipal(c echo.Context) *Principal {
	principal, _ := c.Get(principalKey).(*Principal)
	return principal
}

// requireAuth validates the bearer token and stores the principal on the
// request context. Scope checks are left to the handlers.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c.Request())
		if !ok {
			return unauthorized(c, "missing bearer token")
		}

		claims, err := s.deps.Tokens.Authenticate(c.Request().Context(), raw)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Set(principalKey, &Principal{
			UserID:   claims.Subject,
			ClientID: claims.ClientID,
			Scopes:   claims.Scopes,
		})
		return next(c)
	}
}

// requireScope rejects the request unless the caller's grant covers scope.
// Called at the top of every resource handler so the required scope is visible
// right where the route is implemented.
func requireScope(c echo.Context, scope scopes.Scope) (*Principal, error) {
	principal := currentPrincipal(c)
	if principal == nil {
		return nil, unauthorized(c, "missing bearer token")
	}
	if !principal.Scopes.Contains(scope) {
		return nil, newAPIError(http.StatusForbidden, "insufficient_scope", "token is missing the "+string(scope)+" scope")
	}
	return principal, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	return newAPIError(http.StatusUnauthorized, "unauthorized", message)
}
