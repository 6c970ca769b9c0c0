package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/rooms"
	"github.com/cleanhq/cleaner/users"
	"github.com/cleanhq/cleaner/zones"
)

// apiError is the JSON error body of the resource API.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e *apiError) Error() string {
	return e.Code + ": " + e.Message
}

func newAPIError(status int, code, message string) *apiError {
	return &apiError{Status: status, Code: code, Message: message}
}

func badRequest(message string) *apiError {
	return newAPIError(http.StatusBadRequest, "invalid_request", message)
}

// handleError is the central error mapper. Handlers return domain errors and
// this decides the status and body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		_ = c.JSON(apiErr.Status, apiErr)
		return
	}

	var oauthErr *oauthmodel.Error
	if errors.As(err, &oauthErr) {
		status := http.StatusBadRequest
		switch oauthErr.Code {
		case oauthmodel.ErrInvalidClient:
			status = http.StatusUnauthorized
			c.Response().Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
		case oauthmodel.ErrServerError:
			status = http.StatusInternalServerError
		}
		_ = c.JSON(status, oauthErr)
		return
	}

	if isNotFound(err) {
		_ = c.JSON(http.StatusNotFound, newAPIError(http.StatusNotFound, "not_found", err.Error()))
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, newAPIError(httpErr.Code, http.StatusText(httpErr.Code), ""))
		return
	}

	s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
	_ = c.JSON(http.StatusInternalServerError, newAPIError(http.StatusInternalServerError, "internal_error", "something went wrong"))
}

func isNotFound(err error) bool {
	return errors.Is(err, rooms.ErrRoomNotFound) ||
		errors.Is(err, zones.ErrZoneNotFound) ||
		errors.Is(err, users.ErrUserNotFound) ||
		errors.Is(err, clients.ErrClientNotFound)
}
