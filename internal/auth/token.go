// Package auth handles accounts and identity: registration, login,
// bcrypt password storage and signed bearer tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

const tokenTTL = 24 * time.Hour

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity may call admin endpoints.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens with an HMAC secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for the user, valid for 24 hours.
func (t *TokenIssuer) Issue(userID, role string) (string, error) {
	now := t.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the identity it carries.
func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if !token.Valid || c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	return Identity{UserID: c.Subject, Role: c.Role}, nil
}

// SetNow overrides the clock; used by tests.
func (t *TokenIssuer) SetNow(now func() time.Time) { t.now = now }
