package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSigningKey is returned by CreateSession on a verify-only manager.
	ErrNoSigningKey = errors.New("session token signing key not configured")
	// ErrSessionMismatch is returned by VerifySession when a valid token was
	// issued for a different session, user or tenant.
	ErrSessionMismatch = errors.New("session token does not match session")
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519 keys (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

// Config configures a [Manager].
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
	// TimeFunc overrides the clock used for validation. Nil means time.Now.
	TimeFunc func() time.Time
}

// Manager signs and parses session tokens. Keys are decoded once by
// [NewManager].
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	// verifyKeys maps kid to key. The "" entry is the key used when tokens
	// carry no kid.
	verifyKeys map[string]any
	parser     *jwt.Parser
}

// Subject is the identity a session token is issued for.
type Subject struct {
	UserID    string
	TenantID  string
	Username  string
	Role      string
	SessionID string
}

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	UID      string `json:"uid"`
	TID      string `json:"tid,omitempty"`
	SID      string `json:"sid"`
	Username string `json:"usr,omitempty"`
	Role     string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a [Manager]. Ed25519 managers need a
// public key or a verify key set; a private key is only needed to sign.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodEd25519
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, verifyKeys: make(map[string]any)}
	var decode func([]byte) (any, error)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		decode = func(k []byte) (any, error) { return k, nil }
		m.verifyKeys[""] = cfg.PrivateKey
	case MethodEd25519:
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
		}
		decode = func(k []byte) (any, error) { return parseEdPublicKey(k) }
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verifyKeys[""] = pub
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	if len(cfg.VerifyKeys) > 0 {
		// A rotation set replaces the single key: every token must name its kid.
		m.verifyKeys = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			key, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s verify key for kid %q: %w", cfg.SigningMethod, kid, err)
			}
			m.verifyKeys[kid] = key
		}
		if _, ok := m.verifyKeys[cfg.KeyID]; cfg.KeyID != "" && !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	} else if cfg.KeyID != "" {
		m.verifyKeys = map[string]any{cfg.KeyID: m.verifyKeys[""]}
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	m.parser = jwt.NewParser(options...)

	return m, nil
}

// CreateSession signs a token for sub valid from issuedAt until expiresAt.
// A zero expiresAt issues a token without an exp claim. The exp claim is
// rounded up to the whole second so the token never expires before the
// session it belongs to.
func (m *Manager) CreateSession(sub Subject, issuedAt, expiresAt time.Time) (string, error) {
	if sub.UserID == "" || sub.SessionID == "" {
		return "", errors.New("session token requires user and session id")
	}
	if m.signKey == nil {
		return "", ErrNoSigningKey
	}

	claims := SessionClaims{
		UID:      sub.UserID,
		TID:      sub.TenantID,
		SID:      sub.SessionID,
		Username: sub.Username,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sub.UserID,
			ID:       sub.SessionID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Issuer:   m.config.Issuer,
		},
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(ceilSecond(expiresAt))
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// ParseSession verifies tokenStr and returns its claims.
func (m *Manager) ParseSession(tokenStr string) (*SessionClaims, error) {
	token, err := m.parser.ParseWithClaims(tokenStr, &SessionClaims{}, m.keyFor)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UID == "" || claims.SID == "" {
		return nil, errors.New("token missing uid or sid")
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, errors.New("token iat too far in the future")
	}
	return claims, nil
}

// VerifySession parses tokenStr and checks that it was issued for want's
// session, user and tenant. A valid token for another session wraps
// [ErrSessionMismatch].
func (m *Manager) VerifySession(tokenStr string, want Subject) (*SessionClaims, error) {
	claims, err := m.ParseSession(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.SID != want.SessionID || claims.UID != want.UserID || claims.TID != want.TenantID {
		return nil, fmt.Errorf("%w: token for session %q", ErrSessionMismatch, claims.SID)
	}
	return claims, nil
}

// keyFor selects the verification key by the token's kid header.
func (m *Manager) keyFor(t *jwt.Token) (any, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)
	if kid == "" && (len(m.config.VerifyKeys) > 0 || m.config.KeyID != "") {
		return nil, errors.New("missing kid")
	}
	key, ok := m.verifyKeys[kid]
	if !ok || key == nil {
		return nil, errors.New("unknown kid")
	}
	return key, nil
}

func (m *Manager) now() time.Time {
	if m.config.TimeFunc != nil {
		return m.config.TimeFunc()
	}
	return time.Now()
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
