package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/ops"
)

// SetStatus handles PATCH /v1/reservations/:id/status with {"status": "..."}.
func (h *OpsHandler) SetStatus(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return badRequest(c, "status is required")
	}
	r, err := h.Console.SetStatus(c.Request().Context(), actorID, id, body.Status)
	if err != nil {
		return h.fail(c, "set status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// AddPlayer handles POST /v1/reservations/:id/players.
func (h *OpsHandler) AddPlayer(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var body ops.AddPlayerRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Console.AddPlayer(c.Request().Context(), actorID, id, body)
	if err != nil {
		return h.fail(c, "add player", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": p})
}

// ReplacePlayers handles PUT /v1/reservations/:id/players with
// {"players": [...]}.
func (h *OpsHandler) ReplacePlayers(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Players []model.Player `json:"players"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if body.Players == nil {
		body.Players = []model.Player{}
	}
	out, err := h.Console.ReplacePlayers(c.Request().Context(), id, body.Players)
	if err != nil {
		return h.fail(c, "replace players", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// RemovePlayer handles DELETE /v1/reservations/:id/players/:player_id.
func (h *OpsHandler) RemovePlayer(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	playerID, ok := parseID(c, "player_id")
	if !ok {
		return badRequest(c, "invalid player id")
	}
	if err := h.Console.RemovePlayer(c.Request().Context(), id, playerID); err != nil {
		return h.fail(c, "remove player", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRuns handles GET /v1/reservations/:id/runs.
func (h *OpsHandler) ListRuns(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	runs, err := h.Console.ListRuns(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "list runs", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": runs, "count": len(runs)})
}
