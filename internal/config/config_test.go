package config

import (
	"testing"
	"time"

	"worktrack/internal/middleware"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "STORE_TIMEOUT", "MAX_LOCATION_SAMPLES", "REDIS_URL", "NATS_URL", "JWT_EXPIRES_IN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIPort != 3000 {
		t.Errorf("APIPort = %d, want 3000", cfg.APIPort)
	}
	if cfg.StoreTimeout != 8*time.Second {
		t.Errorf("StoreTimeout = %v, want 8s", cfg.StoreTimeout)
	}
	if cfg.MaxLocationSamples != 1000 {
		t.Errorf("MaxLocationSamples = %d, want 1000", cfg.MaxLocationSamples)
	}
	if cfg.JWTExpiresIn != 24*time.Hour {
		t.Errorf("JWTExpiresIn = %v, want 24h", cfg.JWTExpiresIn)
	}
	if cfg.RedisURL != "" || cfg.NATSURL != "" {
		t.Errorf("redis and nats should be disabled by default")
	}
	if len(cfg.DefaultOffices) != 2 || cfg.DefaultOffices[0].Name != "ACS" {
		t.Errorf("unexpected default offices: %+v", cfg.DefaultOffices)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	t.Setenv("STORE_TIMEOUT", "5")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("OFFICE_DETECTION_RADIUS", "250")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d", cfg.APIPort)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want 5s", cfg.StoreTimeout)
	}
	if cfg.JWTExpiresIn != 2*time.Hour {
		t.Errorf("JWTExpiresIn = %v, want 2h", cfg.JWTExpiresIn)
	}
	if cfg.DefaultOffices[1].RadiusMeters != 250 {
		t.Errorf("office radius = %v, want 250", cfg.DefaultOffices[1].RadiusMeters)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestRuleForPath(t *testing.T) {
	cfg := Load()

	login := cfg.RuleForPath("/api/v1/auth/login")
	if login.Algorithm != middleware.FixedWindow || login.Limit != 5 {
		t.Errorf("login rule = %+v", login)
	}
	if got := cfg.RuleForPath("/api/v1/export/attendance"); got.Path != "/api/v1/export/" {
		t.Errorf("export rule = %+v", got)
	}
	if got := cfg.RuleForPath("/api/v1/attendance/status"); got.Path != "*" {
		t.Errorf("default rule = %+v", got)
	}

	mc := login.ToMiddlewareConfig()
	if mc.Window != 60 || mc.Type != middleware.RateLimitByIP {
		t.Errorf("middleware config = %+v", mc)
	}
}
