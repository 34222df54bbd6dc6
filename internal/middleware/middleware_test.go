package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/lane-ops/internal/config"
)

const secret = "test-secret"

func token(t *testing.T, sub, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"role": role, "exp": time.Now().Add(time.Hour).Unix()}
	if sub != "" {
		claims["sub"] = sub
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func serve(e *echo.Echo, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRoles(t *testing.T) {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		id, ok := ActorID(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, echo.Map{"actor": id})
	}, RequireRole(RoleStaff, RoleAdmin))
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(RoleAdmin))

	rec := serve(e, http.MethodGet, "/v1/me", token(t, "42", "staff"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actor":42}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/v1/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/v1/me", "not-a-jwt").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/v1/me", token(t, "", "STAFF")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/v1/me", token(t, "42", "CUSTOMER")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/v1/admin", token(t, "42", "STAFF")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/admin", token(t, "1", "ADMIN")).Code)
	assert.Equal(t, http.StatusTeapot, serve(e, http.MethodGet, "/v1/me", token(t, "abc", "STAFF")).Code,
		"a non-numeric subject is not a staff id")
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucketLocalFallback(t *testing.T) {
	e := echo.New()
	e.GET("/lookup", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(rateConfig(), nil, nil))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/lookup", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/lookup", "").Code)
	rec := serve(e, http.MethodGet, "/lookup", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := echo.New()
	e.GET("/lookup", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(rateConfig(), rdb, nil))

	rec := serve(e, http.MethodGet, "/lookup", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/lookup", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/lookup", "").Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "rl:ip:")
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateConfig()
	cfg.Enabled = false
	e := echo.New()
	e.GET("/lookup", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/lookup", "").Code)
	}
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      []string{"GET"},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	calls := 0
	e := echo.New()
	e.GET("/types", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewRedisCache(cacheConfig(), rdb, nil))
	e.PUT("/types", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, InvalidateCache(cacheConfig(), rdb, nil))
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) }, NewRedisCache(cacheConfig(), rdb, nil))

	first := serve(e, http.MethodGet, "/types", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/types", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPut, "/types", "").Code)
	third := serve(e, http.MethodGet, "/types", "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	serve(e, http.MethodGet, "/missing", "")
	assert.Len(t, mr.Keys(), 1, "only successful responses are cached")
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	serve(e, http.MethodGet, "/ok", "")
	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
}
