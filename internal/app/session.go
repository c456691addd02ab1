package app

import (
	"errors"
	"fmt"
	"time"

	"brandsite/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies stateless HS256 admin session tokens. There
// is no server-side revocation: a token is valid until its exp claim.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session manager. An empty secret is accepted so the
// server can start, but every Issue and Verify then fails with
// domain.ErrNotConfigured.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = domain.DefaultSessionMaxAge
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Configured reports whether a signing secret is present.
func (s *Sessions) Configured() bool {
	return len(s.secret) > 0
}

// TTL returns the lifetime given to new tokens.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for role. The returned expiry is the exact exp claim,
// so callers can derive cookie lifetimes from it.
func (s *Sessions) Issue(role string) (string, time.Time, error) {
	if !s.Configured() {
		return "", time.Time{}, fmt.Errorf("session secret missing: %w", domain.ErrNotConfigured)
	}
	issued := s.now().Truncate(time.Second)
	expires := issued.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify checks signature, expiry and the admin role claim.
func (s *Sessions) Verify(token string) (*domain.Session, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("session secret missing: %w", domain.ErrNotConfigured)
	}
	if token == "" {
		return nil, domain.ErrInvalidCredentials
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if claims.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidCredentials, claims.Role)
	}

	sess := &domain.Session{Role: claims.Role}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
