package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleanhq/cleaner/scopes"
)

type roomRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (s *Server) listRooms(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsRead)
	if err != nil {
		return err
	}

	list, err := s.deps.Cleaning.ListRooms(c.Request().Context(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) createRoom(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsWrite)
	if err != nil {
		return err
	}

	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}
	if req.Name == "" {
		return badRequest("name is required")
	}

	room, err := s.deps.Cleaning.CreateRoom(c.Request().Context(), principal.UserID, req.Name, req.Icon)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, room)
}

func (s *Server) getRoom(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsRead)
	if err != nil {
		return err
	}

	room, err := s.deps.Cleaning.GetRoom(c.Request().Context(), principal.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

func (s *Server) updateRoom(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsWrite)
	if err != nil {
		return err
	}

	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	room, err := s.deps.Cleaning.UpdateRoom(c.Request().Context(), principal.UserID, c.Param("id"), req.Name, req.Icon)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

func (s *Server) deleteRoom(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsWrite)
	if err != nil {
		return err
	}

	if err := s.deps.Cleaning.DeleteRoom(c.Request().Context(), principal.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) restoreRoom(c echo.Context) error {
	principal, err := requireScope(c, scopes.RoomsWrite)
	if err != nil {
		return err
	}

	room, err := s.deps.Cleaning.RestoreRoom(c.Request().Context(), principal.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}
