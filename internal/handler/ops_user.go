package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// LookupUser handles GET /v1/users/lookup?phone=&reservation_id=.  A miss
// is a 200 with status "notfound".
func (h *OpsHandler) LookupUser(c echo.Context) error {
	var resID uint64
	if s := c.QueryParam("reservation_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(c, "invalid reservation_id")
		}
		resID = id
	}
	res, err := h.Console.LookupPlayer(c.Request().Context(), c.QueryParam("phone"), resID)
	if err != nil {
		return h.fail(c, "lookup", err)
	}
	return c.JSON(http.StatusOK, res)
}

// SignWaiver handles POST /v1/users/:id/waivers with {"signed_name": "..."}.
func (h *OpsHandler) SignWaiver(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var body struct {
		SignedName string `json:"signed_name"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	u, err := h.Console.SignWaiver(c.Request().Context(), id, body.SignedName)
	if err != nil {
		return h.fail(c, "sign waiver", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": u})
}
