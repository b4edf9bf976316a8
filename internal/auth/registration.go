// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// RegistrationService creates new accounts.
type RegistrationService struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewRegistrationService creates a RegistrationService with a no-op logger.
// Returns an error if any required dependency is nil.
func NewRegistrationService(users UserRepository, hasher PasswordHasher) (*RegistrationService, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &RegistrationService{
		users:  users,
		hasher: hasher,
		logger: slog.New(slog.DiscardHandler),
	}, nil
}

// NewRegistrationServiceWithLogger creates a RegistrationService with the
// provided logger.
func NewRegistrationServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*RegistrationService, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	s, err := NewRegistrationService(users, hasher)
	if err != nil {
		return nil, err
	}
	s.logger = logger
	return s, nil
}

// Register validates the submitted email and password, hashes the password,
// and stores the new account. Only the digest is ever persisted. Email
// uniqueness is enforced atomically by the repository, so two racing signups
// for the same email cannot both succeed.
func (s *RegistrationService) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code("ACCOUNT_EXISTS").
				With("email", email).
				Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("account created", "user_id", user.ID.String())
	return user, nil
}
