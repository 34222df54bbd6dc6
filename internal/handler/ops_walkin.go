package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/ops"
)

// CreateWalkIn handles POST /v1/walkins.
func (h *OpsHandler) CreateWalkIn(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var body ops.WalkInRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Console.CreateWalkIn(c.Request().Context(), actorID, body)
	if err != nil {
		return h.fail(c, "walk-in", err)
	}
	return c.JSON(http.StatusCreated, res)
}
