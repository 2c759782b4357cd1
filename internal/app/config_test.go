package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Errorf("expected empty PostgresDSN, got %s", cfg.PostgresDSN)
	}
	if cfg.LockTimeout != 2*time.Second {
		t.Errorf("expected LockTimeout 2s, got %s", cfg.LockTimeout)
	}
	if cfg.CatalogTTL != 5*time.Minute {
		t.Errorf("expected CatalogTTL 5m, got %s", cfg.CatalogTTL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CHECKOUT_HTTP_ADDR", ":8181")
	t.Setenv("CHECKOUT_POSTGRES_DSN", "postgres://localhost:5432/checkout")
	t.Setenv("CHECKOUT_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("CHECKOUT_LOCK_TIMEOUT", "500ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTPAddr != ":8181" {
		t.Errorf("expected HTTPAddr :8181, got %s", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "postgres://localhost:5432/checkout" {
		t.Errorf("unexpected PostgresDSN: %s", cfg.PostgresDSN)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker-1:9092" {
		t.Errorf("unexpected KafkaBrokers: %v", cfg.KafkaBrokers)
	}
	if cfg.LockTimeout != 500*time.Millisecond {
		t.Errorf("expected LockTimeout 500ms, got %s", cfg.LockTimeout)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HTTPAddr == "" || cfg.MetricsAddr == "" {
		t.Error("default addresses must not be empty")
	}
	if cfg.ConfirmLatency != time.Second {
		t.Errorf("expected ConfirmLatency 1s, got %s", cfg.ConfirmLatency)
	}
}
