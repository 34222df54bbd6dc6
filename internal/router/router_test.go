package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lane-ops/internal/handler"
	"github.com/iliyamo/lane-ops/internal/ops"
)

func newEcho(checks map[string]handler.Check) *echo.Echo {
	e := echo.New()
	// The routes are only inspected and called without a token, so the
	// console never reaches its store.
	h := handler.NewOpsHandler(ops.NewConsole(nil), nil)
	RegisterRoutes(e, h, Deps{JWTSecret: "secret", Checks: checks})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newEcho(nil)
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /v1/board",
		"GET /v1/slots/:date/:time",
		"GET /v1/slots/:date/:time/capacity",
		"POST /v1/slots/:date/:time/send",
		"PATCH /v1/reservations/:id/status",
		"POST /v1/reservations/:id/players",
		"PUT /v1/reservations/:id/players",
		"DELETE /v1/reservations/:id/players/:player_id",
		"GET /v1/reservations/:id/runs",
		"GET /v1/users/lookup",
		"POST /v1/users/:id/waivers",
		"POST /v1/walkins",
		"POST /v1/runs",
		"PUT /v1/runs/:id",
		"DELETE /v1/runs/:id",
		"GET /v1/leaderboard",
		"GET /v1/catalog/types",
		"GET /v1/catalog/templates",
		"GET /v1/catalog/waivers",
		"PUT /v1/catalog/types",
		"PUT /v1/catalog/templates",
		"PUT /v1/catalog/waivers/:id/activate",
	} {
		assert.True(t, got[want], want)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEcho(nil)
	for _, path := range []string{"/v1/board", "/v1/catalog/types"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/catalog/types", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := httptest.NewRecorder()
	newEcho(map[string]handler.Check{"db": ok}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	newEcho(map[string]handler.Check{"db": ok, "redis": down}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"unhealthy","checks":{"redis":"connection refused"}}`, rec.Body.String())
}
