// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length, enforced at
// signup and again on password change.
const MinPasswordLength = 7

// User represents a stored account record. The PasswordHash field must never
// leave the process; callers hand out Identity values instead.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the non-secret projection of a verified user. It is what
// credential and token verification return, and what request contexts carry.
type Identity struct {
	ID    ulid.ULID
	Email string
}

// NewUser creates a validated User with a normalized email.
// The passwordHash must already be a digest; raw secrets are never stored.
func NewUser(email, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_EMPTY_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Identity returns the non-secret projection of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email}
}

// NormalizeEmail lowercases and trims an email so that lookups are
// case-insensitive exact matches.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the minimal structural requirements for an email:
// non-empty and containing an "@" separator with content on both sides.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Wrapf(ErrInvalidEmail, "email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			With("email", email).
			Wrapf(ErrInvalidEmail, "email must contain a local part and a domain")
	}
	return nil
}

// ValidatePassword enforces the minimum-strength policy shared by signup and
// password change.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("ACCOUNT_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			Wrapf(ErrWeakPassword, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// UserRepository manages account persistence. The service never opens or
// closes the underlying connection; that is the caller's concern.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicate (wrapped) if an account
	// with the same email already exists.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound (wrapped) if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound (wrapped) if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePasswordHash replaces only the password hash, atomically.
	// Returns ErrNotFound (wrapped) if the record vanished.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error
}
