package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr default: %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" || cfg.Session.Store != "memory" {
		t.Fatalf("drivers default: %q/%q", cfg.Storage.Driver, cfg.Session.Store)
	}
	if cfg.Session.CookieName != "portal_session" {
		t.Fatalf("cookie default: %q", cfg.Session.CookieName)
	}
	if got := cfg.SessionTTL(); got != 7*24*time.Hour {
		t.Fatalf("ttl default: %v", got)
	}
	if cfg.Session.Secret == "" {
		t.Fatal("secret efímero no generado")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9090"
session:
  ttl: "24h"
  secret: "from-yaml"
freshbooks:
  client_id: "yaml-cid"
`)
	t.Setenv("FRESHBOOKS_CLIENT_ID", "env-cid")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("yaml addr: %q", cfg.Server.Addr)
	}
	// env pisa yaml
	if cfg.Freshbooks.ClientID != "env-cid" {
		t.Fatalf("env override: %q", cfg.Freshbooks.ClientID)
	}
	if got := cfg.SessionTTL(); got != time.Hour {
		t.Fatalf("ttl override: %v", got)
	}
	if cfg.Session.Secret != "from-yaml" {
		t.Fatalf("secret: %q", cfg.Session.Secret)
	}
}

func TestSessionTTLFallback(t *testing.T) {
	var c Config
	c.Session.TTL = "no-es-duración"
	if got := c.SessionTTL(); got != 7*24*time.Hour {
		t.Fatalf("fallback: %v", got)
	}
}
