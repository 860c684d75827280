package goSession

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := parseConfig(`
[session]
lifetime = "30m"
client_key = "kiosk-7"
`, t.TempDir())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Session.Lifetime != 30*time.Minute || cfg.Session.ClientKey != "kiosk-7" {
		t.Fatalf("session section not applied: %+v", cfg.Session)
	}

	def := DefaultConfig()
	if cfg.Session.RedisPrefix != def.Session.RedisPrefix || !cfg.Session.PersistenceEnabled {
		t.Fatalf("absent session keys must keep defaults: %+v", cfg.Session)
	}
	if cfg.Security != def.Security || cfg.Audit != def.Audit || cfg.Metrics != def.Metrics {
		t.Fatal("absent sections must keep defaults")
	}
}

func TestParseConfigAllSections(t *testing.T) {
	cfg, err := parseConfig(`
[session]
persistence_enabled = false

[security]
enable_login_throttle = true
enable_ip_throttle = true
max_login_attempts = 3
login_cooldown = "5m"
login_timeout = "2s"

[audit]
enabled = true
buffer_size = 64
drop_if_full = false

[metrics]
enabled = true
latency_histograms = true
`, t.TempDir())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Session.PersistenceEnabled {
		t.Fatal("expected persistence disabled")
	}
	if !cfg.Security.EnableIPThrottle || cfg.Security.MaxLoginAttempts != 3 ||
		cfg.Security.LoginCooldownDuration != 5*time.Minute || cfg.Security.LoginTimeout != 2*time.Second {
		t.Fatalf("security section not applied: %+v", cfg.Security)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 64 || cfg.Audit.DropIfFull {
		t.Fatalf("audit section not applied: %+v", cfg.Audit)
	}
	if !cfg.Metrics.EnableLatencyHistograms {
		t.Fatal("expected latency histograms")
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := parseConfig(`
[session]
lifetim = "1h"
`, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "session.lifetim") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestParseConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad duration":  "[session]\nlifetime = \"soon\"\n",
		"bad type":      "[security]\nmax_login_attempts = \"five\"\n",
		"fails checks":  "[security]\nmax_login_attempts = 0\n",
		"bad signing":   "[token]\nenabled = true\nsigning_method = \"none\"\n",
		"missing key":   "[token]\nenabled = true\nsigning_method = \"hs256\"\nprivate_key_file = \"nope.key\"\n",
		"broken syntax": "[session\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseConfig(data, t.TempDir()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigFileResolvesKeyFiles(t *testing.T) {
	dir := t.TempDir()
	secret := "0123456789abcdef0123456789abcdef"
	if err := os.WriteFile(filepath.Join(dir, "hs.key"), []byte(secret), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	path := filepath.Join(dir, "gosession.toml")
	data := `
[token]
enabled = true
signing_method = "hs256"
private_key_file = "hs.key"
issuer = "kiosk"
leeway = "10s"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(cfg.Token.PrivateKey) != secret {
		t.Fatalf("key file not loaded relative to config: %q", cfg.Token.PrivateKey)
	}
	if cfg.Token.Issuer != "kiosk" || cfg.Token.Leeway != 10*time.Second {
		t.Fatalf("token section not applied: %+v", cfg.Token)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
