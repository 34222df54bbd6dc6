package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lane-ops/internal/handler"
	"github.com/iliyamo/lane-ops/internal/middleware"
)

// RegisterStaff registers the front desk endpoints under /v1.  All routes
// require a valid JWT with the STAFF or ADMIN role.  Catalog reads are
// served through the response cache; phone lookups are rate limited.
func RegisterStaff(e *echo.Echo, h *handler.OpsHandler, d Deps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
	)

	g.GET("/board", h.GetBoard)
	g.GET("/slots/:date/:time", h.GetSlot)
	g.GET("/slots/:date/:time/capacity", h.CheckCapacity)
	g.POST("/slots/:date/:time/send", h.SendGroup)

	g.PATCH("/reservations/:id/status", h.SetStatus)
	g.POST("/reservations/:id/players", h.AddPlayer)
	g.PUT("/reservations/:id/players", h.ReplacePlayers)
	g.DELETE("/reservations/:id/players/:player_id", h.RemovePlayer)
	g.GET("/reservations/:id/runs", h.ListRuns)

	g.GET("/users/lookup", h.LookupUser, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger))
	g.POST("/users/:id/waivers", h.SignWaiver)

	g.POST("/walkins", h.CreateWalkIn)

	g.POST("/runs", h.RecordRun)
	g.PUT("/runs/:id", h.UpdateRun)
	g.DELETE("/runs/:id", h.DeleteRun)
	g.GET("/leaderboard", h.Leaderboard)

	cached := middleware.NewRedisCache(d.Cache, d.Redis, d.Logger)
	g.GET("/catalog/types", h.ListTypes, cached)
	g.GET("/catalog/templates", h.ListTemplates, cached)
	g.GET("/catalog/waivers", h.ListWaivers, cached)
}
