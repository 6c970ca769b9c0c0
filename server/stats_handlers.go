package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleanhq/cleaner/scopes"
)

func (s *Server) statsOverview(c echo.Context) error {
	principal, err := requireScope(c, scopes.StatsRead)
	if err != nil {
		return err
	}

	overview, err := s.deps.Cleaning.Stats(c.Request().Context(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}
