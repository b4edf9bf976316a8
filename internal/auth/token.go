// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// DefaultSessionTTL is the default lifetime of an issued session token.
	DefaultSessionTTL = 24 * time.Hour

	// MinSigningKeyLength is the minimum accepted signing key length in bytes.
	// HS256 keys shorter than the hash output weaken the MAC.
	MinSigningKeyLength = 32
)

// sessionClaims is the JWT payload of a session token. Subject carries the
// user ID; Email is duplicated so the guard can hand out a full Identity
// without a store lookup.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer mints and validates signed session tokens. Tokens are
// self-contained: validation needs only the signing key and the clock, no
// store lookup. The key is set once at construction and never rotated for the
// life of the process.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer with the given signing key and default
// token lifetime. A ttl of zero selects DefaultSessionTTL.
func NewTokenIssuer(key []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(key) < MinSigningKeyLength {
		return nil, oops.Code("SESSION_KEY_TOO_SHORT").
			With("min_bytes", MinSigningKeyLength).
			Errorf("signing key must be at least %d bytes", MinSigningKeyLength)
	}
	if ttl < 0 {
		return nil, oops.Code("SESSION_TTL_INVALID").Errorf("token ttl cannot be negative")
	}
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the issuer's default token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a signed session token for the identity. A ttl of zero selects
// the issuer's default lifetime.
func (i *TokenIssuer) Issue(identity Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email: identity.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies a presented token and extracts the embedded identity.
// Expired tokens return ErrSessionExpired; everything else that fails to
// verify (bad signature, malformed structure, wrong algorithm) returns
// ErrSessionInvalid. Callers outside the trust boundary must collapse both
// into a single unauthenticated condition.
func (i *TokenIssuer) Validate(token string) (Identity, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, oops.Code("SESSION_EXPIRED").Wrap(ErrSessionExpired)
	case err != nil:
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	case !parsed.Valid:
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}

	return Identity{ID: id, Email: claims.Email}, nil
}

// keyFunc hands the process-wide signing key to the JWT parser.
func (i *TokenIssuer) keyFunc(_ *jwt.Token) (any, error) {
	return i.key, nil
}
