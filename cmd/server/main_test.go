package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setServerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_PORT", "0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DB_USER", "ops")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_NAME", "lane_ops")
}

func TestServeReturnsNonZeroWhenDatabaseIsDown(t *testing.T) {
	setServerEnv(t)
	assert.Equal(t, 1, serve())
}

func TestServeReturnsNonZeroOnBadConfig(t *testing.T) {
	setServerEnv(t)
	t.Setenv("JWT_SECRET", "")
	assert.Equal(t, 1, serve())
}
