package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/handler"
	"github.com/iliyamo/lane-ops/internal/middleware"
)

// RegisterAdmin registers catalog maintenance under /v1/catalog.  Only the
// ADMIN role may write; every write purges the cached catalog reads.
func RegisterAdmin(e *echo.Echo, h *handler.OpsHandler, d Deps) {
	g := e.Group(
		"/v1/catalog",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleAdmin),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Logger),
	)
	g.PUT("/types", h.SaveType)
	g.PUT("/templates", h.SaveTemplate)
	g.PUT("/waivers/:id/activate", h.ActivateWaiver)
}
