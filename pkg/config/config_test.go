package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Remote.CartAPIURL != "http://localhost:9090" {
		t.Fatalf("unexpected cart API URL: %q", cfg.Remote.CartAPIURL)
	}
	if got := cfg.Remote.Timeout; got != 10*time.Second {
		t.Fatalf("expected default remote timeout 10s, got %v", got)
	}
	if cfg.Remote.OrderBaseURL() != "http://localhost:9090" {
		t.Fatalf("order URL should fall back to cart URL, got %q", cfg.Remote.OrderBaseURL())
	}
	if cfg.Checkout.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", cfg.Checkout.Currency)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownKVBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvKVBackend, "etcd")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid kv backend to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAppPort, "8080")
	t.Setenv(EnvCartAPIURL, "http://localhost:9090")
	t.Setenv(EnvKVBackend, "memory")
}
