// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

// Package httpapi exposes the account service over HTTP.
//
// The JSON API lives under /api: signup, login, logout, the current-user
// endpoint, and password change. A small set of HTML pages sits next to it,
// with /profile requiring a session and redirecting anonymous visitors to
// /auth. Session tokens travel in an HttpOnly cookie for browsers and are
// also accepted as a Bearer token for API clients.
package httpapi
