// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// PasswordChanger orchestrates the password-change flow for an already
// authenticated caller: the new password is validated, the old password is
// re-verified, and only then is the new digest computed and written.
type PasswordChanger struct {
	users    UserRepository
	verifier *Verifier
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewPasswordChanger creates a PasswordChanger with a no-op logger.
// Returns an error if any required dependency is nil.
func NewPasswordChanger(users UserRepository, verifier *Verifier, hasher PasswordHasher) (*PasswordChanger, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("credential verifier is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &PasswordChanger{
		users:    users,
		verifier: verifier,
		hasher:   hasher,
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

// NewPasswordChangerWithLogger creates a PasswordChanger with the provided logger.
func NewPasswordChangerWithLogger(users UserRepository, verifier *Verifier, hasher PasswordHasher, logger *slog.Logger) (*PasswordChanger, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	c, err := NewPasswordChanger(users, verifier, hasher)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return c, nil
}

// Change replaces the caller's password. The caller is already authenticated
// (the guard resolved identity from a valid session token), but must still
// prove possession of the current password: failing that is ErrPasswordMismatch,
// a distinct condition from being unauthenticated.
//
// Ordering is strict: nothing is hashed and nothing is written until the old
// password verifies. Either all steps complete or no mutation is observable.
func (c *PasswordChanger) Change(ctx context.Context, identity Identity, oldPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	if _, err := c.verifier.Verify(ctx, identity.Email, oldPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return oops.Code("PASSWORD_CHANGE_FORBIDDEN").
				With("user_id", identity.ID.String()).
				Wrap(ErrPasswordMismatch)
		}
		return oops.Code("PASSWORD_CHANGE_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}

	hash, err := c.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("PASSWORD_CHANGE_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	// Single-statement update: the prior digest is replaced atomically, with
	// no partial-write state observable.
	if err := c.users.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").
				With("user_id", identity.ID.String()).
				Wrap(err)
		}
		return oops.Code("PASSWORD_CHANGE_FAILED").
			With("operation", "update password hash").
			Wrap(err)
	}

	c.logger.Info("password changed", "user_id", identity.ID.String())
	return nil
}
