// Package token issues and verifies admin session tokens.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "sigil/pkg/domain-errors"
)

// Claims carries the admin identity inside a session token.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HMAC-signed admin session tokens.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewIssuer creates a token issuer. ttl bounds the admin session lifetime.
func NewIssuer(signingKey string, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Generate mints a session token for the given admin.
func (i *Issuer) Generate(adminID, name string) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    "sigil",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign admin token")
	}
	return signed, nil
}

// VerifyAdminToken validates a session token and returns the admin identifier.
// It satisfies the admin middleware's TokenVerifier.
func (i *Issuer) VerifyAdminToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid admin token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid admin token")
	}
	return claims.Subject, nil
}
