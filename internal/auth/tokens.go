// Package auth covers credential hashing, token issuance, and identity
// resolution for bearer tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed, or invalid token.
var ErrUnauthorized = errors.New("unauthorized")

// Claims carries the authenticated username in the subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed bearer tokens. Tokens
// carry no expiry: a registered client stays logged in until it
// discards the token.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for identity.
func (m *TokenManager) Issue(identity string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			Subject:  identity,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Resolve verifies a bearer token and returns the identity it was
// issued for. Stateless per call; any failure maps to ErrUnauthorized.
func (m *TokenManager) Resolve(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
