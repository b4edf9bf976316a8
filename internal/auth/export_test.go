// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package auth

import "time"

// SetNow overrides the issuer's clock for deterministic expiry tests.
func (i *TokenIssuer) SetNow(now func() time.Time) {
	i.now = now
}
