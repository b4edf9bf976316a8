// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is used when an account doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake digest that will
// never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Verifier checks submitted credentials against stored password hashes.
type Verifier struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewVerifier creates a Verifier with a no-op logger.
// Returns an error if any required dependency is nil.
func NewVerifier(users UserRepository, hasher PasswordHasher) (*Verifier, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Verifier{
		users:  users,
		hasher: hasher,
		logger: slog.New(slog.DiscardHandler),
	}, nil
}

// NewVerifierWithLogger creates a Verifier with the provided logger.
func NewVerifierWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*Verifier, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	v, err := NewVerifier(users, hasher)
	if err != nil {
		return nil, err
	}
	v.logger = logger
	return v, nil
}

// Verify checks a submitted credential pair and returns the account's
// Identity on success. An unknown email and a wrong password both fail with
// ErrInvalidCredentials - callers cannot distinguish them, which keeps account
// enumeration off the table. Uses constant-time operations so the two cases
// are not separable by response time either.
func (v *Verifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	email = NormalizeEmail(email)

	user, lookupErr := v.users.GetByEmail(ctx, email)

	// Determine which digest to verify against (real or dummy for timing
	// attack prevention).
	targetHash := dummyPasswordHash
	exists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return Identity{}, oops.Code("AUTH_VERIFY_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		exists = true
	}

	// Always verify, even against the dummy digest.
	valid, verifyErr := v.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !exists {
			return Identity{}, invalidCredentials()
		}
		return Identity{}, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		return Identity{}, invalidCredentials()
	}

	// Upgrade legacy digests on successful verification. Best effort: the
	// login must succeed even if the rewrite fails.
	if v.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := v.hasher.Hash(password); hashErr == nil {
			if updateErr := v.users.UpdatePasswordHash(ctx, user.ID, newHash); updateErr != nil {
				v.logger.Warn("password hash upgrade failed", "user_id", user.ID.String())
			}
		}
	}

	return user.Identity(), nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}
