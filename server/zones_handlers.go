package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/cleaning"
	"github.com/cleanhq/cleaner/scopes"
	"github.com/cleanhq/cleaner/zones"
)

type zoneRequest struct {
	Name               string `json:"name"`
	Icon               string `json:"icon"`
	Frequency          string `json:"frequency"`
	CustomIntervalDays *int   `json:"custom_interval_days"`
}

func (r *zoneRequest) params() cleaning.NewZoneParams {
	return cleaning.NewZoneParams{
		Name:               r.Name,
		Icon:               r.Icon,
		Frequency:          zones.Frequency(r.Frequency),
		CustomIntervalDays: r.CustomIntervalDays,
	}
}

func (s *Server) listZones(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesRead)
	if err != nil {
		return err
	}

	list, err := s.deps.Cleaning.ListZones(c.Request().Context(), principal.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) createZone(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesWrite)
	if err != nil {
		return err
	}

	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	zone, err := s.deps.Cleaning.CreateZone(c.Request().Context(), principal.UserID, c.Param("id"), req.params())
	if err != nil {
		if isNotFound(err) {
			return err
		}
		return badRequest(err.Error())
	}
	return c.JSON(http.StatusCreated, zone)
}

func (s *Server) getZone(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesRead)
	if err != nil {
		return err
	}

	view, err := s.deps.Cleaning.GetZone(c.Request().Context(), principal.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) updateZone(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesWrite)
	if err != nil {
		return err
	}

	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	view, err := s.deps.Cleaning.UpdateZone(c.Request().Context(), principal.UserID, c.Param("id"), req.params())
	if err != nil {
		if isNotFound(err) {
			return err
		}
		return badRequest(err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) deleteZone(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesWrite)
	if err != nil {
		return err
	}

	if err := s.deps.Cleaning.DeleteZone(c.Request().Context(), principal.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) cleanZone(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesWrite)
	if err != nil {
		return err
	}

	view, err := s.deps.Cleaning.CleanZone(c.Request().Context(), principal.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

type bulkCleanRequest struct {
	ZoneIDs []string `json:"zone_ids"`
}

func (s *Server) bulkClean(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesWrite)
	if err != nil {
		return err
	}

	var req bulkCleanRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}
	if len(req.ZoneIDs) == 0 {
		return badRequest("zone_ids is required")
	}

	result, err := s.deps.Cleaning.BulkClean(c.Request().Context(), principal.UserID, req.ZoneIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) dueZones(c echo.Context) error {
	principal, err := requireScope(c, scopes.ZonesRead)
	if err != nil {
		return err
	}

	within, err := zones.ParseHorizon(c.QueryParam("within"))
	if err != nil {
		if errors.Is(err, zones.ErrBadHorizon) {
			return badRequest(err.Error())
		}
		return err
	}

	due, err := s.deps.Cleaning.DueZones(c.Request().Context(), principal.UserID, within)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}
