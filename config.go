package goSession

import (
	"errors"
	"strings"
	"time"
)

// Config holds every tunable of a [Store]. Obtain one from [DefaultConfig],
// adjust it, and pass it to [Builder.WithConfig]; the store keeps its own copy.
type Config struct {
	Session  SessionConfig
	Token    TokenConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and persistence.
type SessionConfig struct {
	// Lifetime bounds an authenticated session. Zero disables expiry.
	Lifetime time.Duration
	// ClientKey names this client installation in the persister.
	ClientKey string
	// RedisPrefix namespaces persisted records and limiter counters.
	RedisPrefix string
	// PersistenceEnabled turns persister writes on when a persister is configured.
	PersistenceEnabled bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls session token signing.
type TokenConfig struct {
	Enabled       bool
	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login throttling and timeouts.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	// LoginTimeout bounds one identity provider call. Zero means the caller's context only.
	LoginTimeout time.Duration
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when [Builder.WithConfig] is not called.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Lifetime:           12 * time.Hour,
			ClientKey:          "default",
			RedisPrefix:        "gs",
			PersistenceEnabled: true,
		},
		Token: TokenConfig{
			Enabled:       false,
			SigningMethod: "ed25519",
			Issuer:        "goSession",
			Leeway:        30 * time.Second,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			LoginTimeout:          10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.Lifetime < 0 {
		return errors.New("Session Lifetime must be >= 0")
	}
	if c.Session.Lifetime > 0 && c.Session.Lifetime < time.Millisecond {
		return errors.New("Session Lifetime must be 0 or at least 1ms")
	}
	if strings.TrimSpace(c.Session.ClientKey) == "" {
		return errors.New("Session ClientKey must not be empty")
	}
	if strings.ContainsAny(c.Session.ClientKey, `/\ `) {
		return errors.New("Session ClientKey must not contain path separators or spaces")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Token
	if c.Token.Enabled {
		switch c.Token.SigningMethod {
		case "ed25519":
			if len(c.Token.PrivateKey) == 0 || len(c.Token.PublicKey) == 0 {
				return errors.New("ed25519 requires PrivateKey and PublicKey")
			}
		case "hs256":
			if len(c.Token.PrivateKey) < 32 {
				return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
			}
		default:
			return errors.New("unsupported token signing method")
		}
		if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
			return errors.New("Token Leeway must be within [0, 2m]")
		}
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttling is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0 when login throttling is enabled")
		}
	}
	if c.Security.LoginTimeout < 0 {
		return errors.New("Security LoginTimeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
