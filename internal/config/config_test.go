package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_USER", "ops")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "lanes")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.Ops.PollInterval != 5*time.Minute {
		t.Fatalf("expected 5m poll interval, got %s", cfg.Ops.PollInterval)
	}
	if !cfg.Cache.Cacheable("get") || cfg.Cache.Cacheable("POST") {
		t.Fatalf("unexpected cache methods %v", cfg.Cache.Methods)
	}
	if cfg.Redis.Address() != "localhost:6379" {
		t.Fatalf("unexpected redis address %q", cfg.Redis.Address())
	}
	if cfg.RateLimit.Capacity != 60 || cfg.RateLimit.PerSecond() != 1 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestRateLimitShorthands(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rl := cfg.RateLimit
	if rl.Capacity != 5 || rl.RefillTokens != 1 || rl.RefillInterval != 2*time.Second {
		t.Fatalf("shorthands not applied: %+v", rl)
	}
	if rl.TTL != 10*time.Minute {
		t.Fatalf("expected ttl kept at 10m, got %s", rl.TTL)
	}
}

func TestRedisAddressPrefersHostPort(t *testing.T) {
	c := RedisConfig{Addr: "a:1", Host: "cache", Port: "6380"}
	if got := c.Address(); got != "cache:6380" {
		t.Fatalf("Address() = %q", got)
	}
}
