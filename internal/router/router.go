// Package router registers the HTTP routes of the operations console.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/config"
	"github.com/iliyamo/lane-ops/internal/handler"
	"github.com/iliyamo/lane-ops/internal/logging"
	"github.com/iliyamo/lane-ops/internal/middleware"
)

// Deps carries what the route groups need besides the handler.  A nil
// Redis client disables response caching and leaves rate limiting on its
// process-local buckets.
type Deps struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Logger    *zap.Logger
	Checks    map[string]handler.Check
}

// RegisterRoutes installs the request logger, the unauthenticated health
// check and every /v1 route.
func RegisterRoutes(e *echo.Echo, h *handler.OpsHandler, d Deps) {
	d.Logger = logging.OrNop(d.Logger)
	e.Use(middleware.RequestLogger(d.Logger))

	// Load balancers poll this without a token.
	e.GET("/healthz", handler.Health(d.Checks))

	RegisterStaff(e, h, d)
	RegisterAdmin(e, h, d)
}
