package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/model"
)

// ListTypes handles GET /v1/catalog/types.
func (h *OpsHandler) ListTypes(c echo.Context) error {
	items, err := h.Console.ReservationTypes(c.Request().Context())
	if err != nil {
		return h.fail(c, "list types", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// ListTemplates handles GET /v1/catalog/templates.
func (h *OpsHandler) ListTemplates(c echo.Context) error {
	items, err := h.Console.SessionTemplates(c.Request().Context())
	if err != nil {
		return h.fail(c, "list templates", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// ListWaivers handles GET /v1/catalog/waivers.
func (h *OpsHandler) ListWaivers(c echo.Context) error {
	items, err := h.Console.WaiverDocs(c.Request().Context())
	if err != nil {
		return h.fail(c, "list waivers", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// SaveType handles PUT /v1/catalog/types.  A body without id creates.
func (h *OpsHandler) SaveType(c echo.Context) error {
	var body model.ReservationType
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Console.SaveReservationType(c.Request().Context(), body)
	if err != nil {
		return h.fail(c, "save type", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": t})
}

// SaveTemplate handles PUT /v1/catalog/templates.  A body without id
// creates.
func (h *OpsHandler) SaveTemplate(c echo.Context) error {
	var body model.SessionTemplate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Console.SaveSessionTemplate(c.Request().Context(), body)
	if err != nil {
		return h.fail(c, "save template", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": t})
}

// ActivateWaiver handles PUT /v1/catalog/waivers/:id/activate.
func (h *OpsHandler) ActivateWaiver(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid waiver id")
	}
	if err := h.Console.ActivateWaiverDoc(c.Request().Context(), actorID, id); err != nil {
		return h.fail(c, "activate waiver", err)
	}
	return c.NoContent(http.StatusNoContent)
}
