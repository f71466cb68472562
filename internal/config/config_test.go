package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.JWTExpiresIn != 24*time.Hour {
		t.Errorf("JWTExpiresIn = %v, want 24h", cfg.JWTExpiresIn)
	}
	if cfg.FrontendURL == "" {
		t.Error("FrontendURL should have a fallback default")
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("JWT_EXPIRES_IN", "1h30m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.JWTExpiresIn != 90*time.Minute {
		t.Errorf("JWTExpiresIn = %v, want 1h30m", cfg.JWTExpiresIn)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokers = %v, want two trimmed brokers", cfg.KafkaBrokers)
	}
}

func TestLoadConfigInvalidExpiry(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() should fail on invalid JWT_EXPIRES_IN")
	}
}
