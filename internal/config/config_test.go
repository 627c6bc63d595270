package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.AccuracyThresholdM != 30 || cfg.MinMovementM != 5 {
		t.Fatalf("unexpected filter defaults: %v %v", cfg.AccuracyThresholdM, cfg.MinMovementM)
	}
	if cfg.RemoteTimeout != 10*time.Second || cfg.BaselineCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.RemoteTimeout, cfg.BaselineCacheTTL)
	}
	if cfg.SyncSchedule != "@every 5m" {
		t.Fatalf("unexpected sync schedule: %q", cfg.SyncSchedule)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCURACY_THRESHOLD_M", "15")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("DEVICE_USER_ID", "user-9")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisPassword != "hunter2" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.AccuracyThresholdM != 15 {
		t.Fatalf("expected override accuracy threshold")
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Fatalf("expected override timeout")
	}
	if cfg.DeviceUserID != "user-9" {
		t.Fatalf("expected override device user")
	}
}
