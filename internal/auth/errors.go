// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an account with the same email already exists.
	ErrDuplicate = errors.New("account already exists")

	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password. The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidEmail is returned when an email fails structural validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when a password does not meet the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrSessionInvalid is returned when a session token is malformed or its
	// signature does not verify.
	ErrSessionInvalid = errors.New("invalid session token")

	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("session has expired")

	// ErrPasswordMismatch is returned when a password change is attempted
	// without proving possession of the current password.
	ErrPasswordMismatch = errors.New("current password does not match")
)
