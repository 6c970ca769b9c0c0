package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleanhq/cleaner/scopes"
)

func (s *Server) getMe(c echo.Context) error {
	principal, err := requireScope(c, scopes.UserRead)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.Get(c.Request().Context(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type updateMeRequest struct {
	Name string `json:"name"`
}

func (s *Server) updateMe(c echo.Context) error {
	principal, err := requireScope(c, scopes.UserWrite)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	user, err := s.deps.Users.UpdateProfile(c.Request().Context(), principal.UserID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
