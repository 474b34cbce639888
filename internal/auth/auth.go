// Package auth is the single session provider for the admin surface: bcrypt
// password verification and HS256 access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken reports a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carried by an admin access token.
type Claims struct {
	AdminID int64  `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Provider issues and verifies admin sessions.
type Provider struct {
	secret []byte
	ttl    time.Duration
	cost   int
}

// NewProvider creates a session provider. ttlMin bounds access-token life,
// cost is the bcrypt work factor.
func NewProvider(secret string, ttlMin, cost int) *Provider {
	return &Provider{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMin) * time.Minute,
		cost:   cost,
	}
}

// HashPassword returns the bcrypt hash for storage.
func (p *Provider) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a stored hash and a plain password.
func (p *Provider) VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueToken signs an access token for an admin user.
func (p *Provider) IssueToken(adminID int64, role string) (string, time.Time, error) {
	exp := time.Now().UTC().Add(p.ttl)
	claims := Claims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifyToken parses and validates a token, returning its claims.
func (p *Provider) VerifyToken(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
