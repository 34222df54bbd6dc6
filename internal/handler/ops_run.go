package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/ops"
)

// RecordRun handles POST /v1/runs.
func (h *OpsHandler) RecordRun(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var body ops.RunInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	run, err := h.Console.RecordRun(c.Request().Context(), actorID, body)
	if err != nil {
		return h.fail(c, "record run", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": run})
}

// UpdateRun handles PUT /v1/runs/:id.
func (h *OpsHandler) UpdateRun(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	var body ops.RunInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	run, err := h.Console.UpdateRun(c.Request().Context(), actorID, id, body)
	if err != nil {
		return h.fail(c, "update run", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": run})
}

// DeleteRun handles DELETE /v1/runs/:id.
func (h *OpsHandler) DeleteRun(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	if err := h.Console.DeleteRun(c.Request().Context(), id); err != nil {
		return h.fail(c, "delete run", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Leaderboard handles GET /v1/leaderboard?structure=&limit=.
func (h *OpsHandler) Leaderboard(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}
	items, err := h.Console.Leaderboard(c.Request().Context(), c.QueryParam("structure"), limit)
	if err != nil {
		return h.fail(c, "leaderboard", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}
