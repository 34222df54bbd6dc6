package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lane-ops/internal/middleware"
)

func TestNewStaffTokenPassesJWTAuth(t *testing.T) {
	tok, err := NewStaffToken("secret", 42, "staff", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := middleware.ActorID(c)
		return c.JSON(http.StatusOK, echo.Map{"actor": id})
	}, middleware.JWTAuth("secret"), middleware.RequireRole(middleware.RoleStaff))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actor":42}`, rec.Body.String())
}

func TestNewStaffTokenRejectsBadInput(t *testing.T) {
	_, err := NewStaffToken("", 1, "STAFF", time.Hour)
	assert.Error(t, err)
	_, err = NewStaffToken("secret", 0, "STAFF", time.Hour)
	assert.Error(t, err)
	_, err = NewStaffToken("secret", 1, "STAFF", 0)
	assert.Error(t, err)
}
