package config

import (
	"testing"
	"time"
)

func TestRateLimitDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Error("limiter should default to enabled")
	}
	if cfg.Capacity != 60 || cfg.RefillTokens != 1 {
		t.Errorf("capacity/refill = %d/%d, want 60/1", cfg.Capacity, cfg.RefillTokens)
	}
	if cfg.KeyStrategy != "ip_user_route" {
		t.Errorf("key strategy = %q", cfg.KeyStrategy)
	}
}

func TestRateLimitTTLClamp(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "2m") // below 5 intervals, must be raised
	cfg := LoadRateLimitConfig()
	if cfg.TTL != 5*time.Minute {
		t.Errorf("TTL = %v, want clamped to 5m", cfg.TTL)
	}
}

func TestCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Errorf("methods = %v, want GET and HEAD", cfg.Methods)
	}
	if cfg.TTL != 15*time.Second {
		t.Errorf("TTL = %v, want default 15s", cfg.TTL)
	}
}

func TestOptionalOverrides(t *testing.T) {
	t.Setenv("RESERVE_TTL_MIN", "45")
	if got := intOr("RESERVE_TTL_MIN", 120); got != 45 {
		t.Errorf("intOr = %d, want 45", got)
	}
	t.Setenv("RESERVE_TTL_MIN", "not-a-number")
	if got := intOr("RESERVE_TTL_MIN", 120); got != 120 {
		t.Errorf("intOr with junk = %d, want default 120", got)
	}

	t.Setenv("SWEEP_INTERVAL", "30s")
	if got := durOr("SWEEP_INTERVAL", 5*time.Minute); got != 30*time.Second {
		t.Errorf("durOr = %v, want 30s", got)
	}
	t.Setenv("SWEEP_INTERVAL", "-10s")
	if got := durOr("SWEEP_INTERVAL", 5*time.Minute); got != 5*time.Minute {
		t.Errorf("durOr with negative = %v, want default", got)
	}
}
