// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

// Package auth implements the authentication core of the accounts service.
//
// # Domain Types
//
// User is the stored account record; Identity is its non-secret projection,
// returned after a successful credential or token verification and carried
// through request contexts. Accounts are created through RegistrationService
// and their password hash is mutated only by PasswordChanger.
//
// # Services
//
// Service types coordinate the core operations:
//   - Verifier - credential verification against the stored password hash
//   - TokenIssuer - stateless session token issuance and validation
//   - RegistrationService - account creation with input validation
//   - PasswordChanger - password change gated on re-proving the old secret
//
// Services are created with New* constructors that validate dependencies.
// All of them are safe for concurrent use: the only state they share is the
// user repository and the issuer's signing key, which is immutable for the
// process lifetime.
package auth
