package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSSHConfig(t *testing.T) string {
	t.Helper()
	content := `Host shop
    User deploy
    Port 2222
    IdentityFile ~/.ssh/shop_ed25519
`
	p := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFillFromSSHConfigFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "shop"

	fillFromSSHConfigFile(cfg, writeSSHConfig(t))
	if cfg.Server.User != "deploy" {
		t.Errorf("user = %q", cfg.Server.User)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if strings.HasPrefix(cfg.Server.Key, "~") {
		t.Errorf("key %q was not expanded", cfg.Server.Key)
	}
	if !strings.HasSuffix(cfg.Server.Key, filepath.Join(".ssh", "shop_ed25519")) {
		t.Errorf("key = %q", cfg.Server.Key)
	}
	if cfg.Server.Host != "shop" {
		t.Errorf("host = %q, the alias must pass through to ssh untouched", cfg.Server.Host)
	}
}

func TestFillFromSSHConfigKeepsExplicitValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server = Server{Host: "shop", User: "admin", Port: 2022, Key: "/keys/explicit"}

	fillFromSSHConfigFile(cfg, writeSSHConfig(t))
	if cfg.Server.User != "admin" || cfg.Server.Port != 2022 || cfg.Server.Key != "/keys/explicit" {
		t.Errorf("server = %+v, explicit values must win", cfg.Server)
	}
}

func TestFillFromSSHConfigMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "shop"
	fillFromSSHConfigFile(cfg, filepath.Join(t.TempDir(), "config"))
	if cfg.Server.User != "" || cfg.Server.Key != "" {
		t.Errorf("server = %+v, want untouched", cfg.Server)
	}
}

func TestFillFromSSHConfigOtherAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "unrelated.example.com"
	fillFromSSHConfigFile(cfg, writeSSHConfig(t))
	if cfg.Server.User != "" {
		t.Errorf("user = %q, want no match for an unlisted host", cfg.Server.User)
	}
}
