// FILE: logvault/src/internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"logvault/src/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Each one also matches core.ErrAuthInvalid.
var (
	ErrTokenMalformed        = fmt.Errorf("%w: malformed token", core.ErrAuthInvalid)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: signature invalid", core.ErrAuthInvalid)
	ErrTokenExpired          = fmt.Errorf("%w: token expired", core.ErrAuthInvalid)
)

// RevocationPolicy describes how issued tokens can be invalidated
type RevocationPolicy int

const (
	// StatelessExpiry tokens are valid until exp; verification never consults server state
	StatelessExpiry RevocationPolicy = iota
)

func (p RevocationPolicy) String() string {
	switch p {
	case StatelessExpiry:
		return "stateless_expiry"
	default:
		return "unknown"
	}
}

// Claims is the token payload
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens
type TokenService struct {
	key    []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
	policy RevocationPolicy

	issued   atomic.Uint64
	verified atomic.Uint64
	rejected atomic.Uint64
}

type TokenOption func(*TokenService)

// WithLeeway tolerates clock skew on exp
func WithLeeway(d time.Duration) TokenOption {
	return func(ts *TokenService) { ts.leeway = d }
}

// WithClock replaces time.Now for issuing and verification
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) { ts.now = now }
}

// NewTokenService creates a token service. A zero ttl uses core.DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	if ttl <= 0 {
		ttl = core.DefaultTokenTTL
	}

	ts := &TokenService{
		key:    []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		policy: StatelessExpiry,
	}
	for _, opt := range opts {
		opt(ts)
	}

	ts.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(ts.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)

	return ts, nil
}

// Issue signs a token for the user, valid for the configured TTL
func (ts *TokenService) Issue(user core.User) (string, error) {
	now := ts.now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	ts.issued.Add(1)
	return signed, nil
}

// Verify checks signature and expiry and returns the caller identity
func (ts *TokenService) Verify(tokenString string) (core.Identity, error) {
	claims := &Claims{}
	_, err := ts.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return ts.key, nil
	})
	if err != nil {
		ts.rejected.Add(1)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return core.Identity{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return core.Identity{}, fmt.Errorf("%w: %w", ErrTokenSignatureInvalid, err)
		default:
			return core.Identity{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		}
	}

	if claims.Username == "" {
		ts.rejected.Add(1)
		return core.Identity{}, fmt.Errorf("%w: missing username claim", ErrTokenMalformed)
	}

	ts.verified.Add(1)
	identity := core.Identity{
		Username: claims.Username,
		Role:     claims.Role,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// TTL returns the token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Policy returns the revocation policy in force
func (ts *TokenService) Policy() RevocationPolicy {
	return ts.policy
}

func (ts *TokenService) GetStats() map[string]any {
	return map[string]any{
		"algorithm":         jwt.SigningMethodHS256.Alg(),
		"ttl_seconds":       int64(ts.ttl / time.Second),
		"leeway_seconds":    int64(ts.leeway / time.Second),
		"revocation_policy": ts.policy.String(),
		"issued":            ts.issued.Load(),
		"verified":          ts.verified.Load(),
		"rejected":          ts.rejected.Load(),
	}
}
