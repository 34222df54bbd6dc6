package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// ActorID returns the numeric id of the authenticated staff member.
func ActorID(c echo.Context) (uint64, bool) {
	s, ok := c.Get(userIDKey).(string)
	if !ok || s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// currentUserID is the subject used in rate-limit keys; "anon" when the
// request is not authenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
