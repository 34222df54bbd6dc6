package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetBoard handles GET /v1/board?date=YYYY-MM-DD.  An empty date is today.
func (h *OpsHandler) GetBoard(c echo.Context) error {
	b, err := h.Console.Board(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return h.fail(c, "board", err)
	}
	return c.JSON(http.StatusOK, b)
}

// GetSlot handles GET /v1/slots/:date/:time.
func (h *OpsHandler) GetSlot(c echo.Context) error {
	v, err := h.Console.Slot(c.Request().Context(), c.Param("date"), c.Param("time"))
	if err != nil {
		return h.fail(c, "slot", err)
	}
	return c.JSON(http.StatusOK, v)
}

// CheckCapacity handles GET /v1/slots/:date/:time/capacity.  It answers
// whether a booking of type_id for players fits, needs a split or is full.
func (h *OpsHandler) CheckCapacity(c echo.Context) error {
	typeID, err := strconv.ParseUint(c.QueryParam("type_id"), 10, 64)
	if err != nil || typeID == 0 {
		return badRequest(c, "invalid type_id")
	}
	players := 0
	if s := c.QueryParam("players"); s != "" {
		if players, err = strconv.Atoi(s); err != nil || players < 0 {
			return badRequest(c, "invalid players")
		}
	}
	second, _ := strconv.ParseBool(c.QueryParam("second_lane"))

	check, err := h.Console.CheckCapacity(c.Request().Context(), c.Param("date"), c.Param("time"), typeID, players, second)
	if err != nil {
		return h.fail(c, "capacity", err)
	}
	return c.JSON(http.StatusOK, check)
}

// SendGroup handles POST /v1/slots/:date/:time/send.
func (h *OpsHandler) SendGroup(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	res, err := h.Console.SendGroup(c.Request().Context(), actorID, c.Param("date"), c.Param("time"))
	if err != nil {
		return h.fail(c, "send group", err)
	}
	return c.JSON(http.StatusOK, res)
}
