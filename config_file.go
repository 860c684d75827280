package goSession

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Session struct {
		Lifetime           time.Duration `toml:"lifetime"`
		ClientKey          string        `toml:"client_key"`
		RedisPrefix        string        `toml:"redis_prefix"`
		PersistenceEnabled bool          `toml:"persistence_enabled"`
	} `toml:"session"`
	Token struct {
		Enabled        bool          `toml:"enabled"`
		SigningMethod  string        `toml:"signing_method"`
		PrivateKeyFile string        `toml:"private_key_file"`
		PublicKeyFile  string        `toml:"public_key_file"`
		Issuer         string        `toml:"issuer"`
		Audience       string        `toml:"audience"`
		Leeway         time.Duration `toml:"leeway"`
		KeyID          string        `toml:"key_id"`
	} `toml:"token"`
	Security struct {
		EnableLoginThrottle   bool          `toml:"enable_login_throttle"`
		EnableIPThrottle      bool          `toml:"enable_ip_throttle"`
		MaxLoginAttempts      int           `toml:"max_login_attempts"`
		LoginCooldownDuration time.Duration `toml:"login_cooldown"`
		LoginTimeout          time.Duration `toml:"login_timeout"`
	} `toml:"security"`
	Audit struct {
		Enabled    bool `toml:"enabled"`
		BufferSize int  `toml:"buffer_size"`
		DropIfFull bool `toml:"drop_if_full"`
	} `toml:"audit"`
	Metrics struct {
		Enabled                 bool `toml:"enabled"`
		EnableLatencyHistograms bool `toml:"latency_histograms"`
	} `toml:"metrics"`
}

// LoadConfigFile reads a TOML configuration file on top of [DefaultConfig].
// Keys absent from the file keep their default. Durations are strings such
// as "12h" or "30s". Key file paths are resolved relative to the file.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(string(data), filepath.Dir(path))
}

func parseConfig(data, baseDir string) (Config, error) {
	cfg := defaultConfig()
	fc := toFileConfig(cfg)

	md, err := toml.Decode(data, &fc)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg.Session.Lifetime = fc.Session.Lifetime
	cfg.Session.ClientKey = fc.Session.ClientKey
	cfg.Session.RedisPrefix = fc.Session.RedisPrefix
	cfg.Session.PersistenceEnabled = fc.Session.PersistenceEnabled

	cfg.Token.Enabled = fc.Token.Enabled
	cfg.Token.SigningMethod = fc.Token.SigningMethod
	cfg.Token.Issuer = fc.Token.Issuer
	cfg.Token.Audience = fc.Token.Audience
	cfg.Token.Leeway = fc.Token.Leeway
	cfg.Token.KeyID = fc.Token.KeyID
	if fc.Token.PrivateKeyFile != "" {
		if cfg.Token.PrivateKey, err = readKeyFile(baseDir, fc.Token.PrivateKeyFile); err != nil {
			return Config{}, err
		}
	}
	if fc.Token.PublicKeyFile != "" {
		if cfg.Token.PublicKey, err = readKeyFile(baseDir, fc.Token.PublicKeyFile); err != nil {
			return Config{}, err
		}
	}

	cfg.Security.EnableLoginThrottle = fc.Security.EnableLoginThrottle
	cfg.Security.EnableIPThrottle = fc.Security.EnableIPThrottle
	cfg.Security.MaxLoginAttempts = fc.Security.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = fc.Security.LoginCooldownDuration
	cfg.Security.LoginTimeout = fc.Security.LoginTimeout

	cfg.Audit.Enabled = fc.Audit.Enabled
	cfg.Audit.BufferSize = fc.Audit.BufferSize
	cfg.Audit.DropIfFull = fc.Audit.DropIfFull

	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.EnableLatencyHistograms

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func toFileConfig(cfg Config) fileConfig {
	var fc fileConfig
	fc.Session.Lifetime = cfg.Session.Lifetime
	fc.Session.ClientKey = cfg.Session.ClientKey
	fc.Session.RedisPrefix = cfg.Session.RedisPrefix
	fc.Session.PersistenceEnabled = cfg.Session.PersistenceEnabled
	fc.Token.Enabled = cfg.Token.Enabled
	fc.Token.SigningMethod = cfg.Token.SigningMethod
	fc.Token.Issuer = cfg.Token.Issuer
	fc.Token.Audience = cfg.Token.Audience
	fc.Token.Leeway = cfg.Token.Leeway
	fc.Token.KeyID = cfg.Token.KeyID
	fc.Security.EnableLoginThrottle = cfg.Security.EnableLoginThrottle
	fc.Security.EnableIPThrottle = cfg.Security.EnableIPThrottle
	fc.Security.MaxLoginAttempts = cfg.Security.MaxLoginAttempts
	fc.Security.LoginCooldownDuration = cfg.Security.LoginCooldownDuration
	fc.Security.LoginTimeout = cfg.Security.LoginTimeout
	fc.Audit.Enabled = cfg.Audit.Enabled
	fc.Audit.BufferSize = cfg.Audit.BufferSize
	fc.Audit.DropIfFull = cfg.Audit.DropIfFull
	fc.Metrics.Enabled = cfg.Metrics.Enabled
	fc.Metrics.EnableLatencyHistograms = cfg.Metrics.EnableLatencyHistograms
	return fc
}

func readKeyFile(baseDir, name string) ([]byte, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(baseDir, name)
	}
	key, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return key, nil
}
