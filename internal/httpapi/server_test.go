// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package httpapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urang-market/accounts/internal/auth"
	"github.com/urang-market/accounts/internal/auth/memory"
	"github.com/urang-market/accounts/internal/httpapi"
)

func newLifecycleServer(t *testing.T) *httpapi.Server {
	t.Helper()

	users := memory.NewUserRepository()
	hasher := auth.NewArgon2idHasher()

	verifier, err := auth.NewVerifier(users, hasher)
	require.NoError(t, err)
	registrar, err := auth.NewRegistrationService(users, hasher)
	require.NoError(t, err)
	changer, err := auth.NewPasswordChanger(users, verifier, hasher)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	server, err := httpapi.NewServer(verifier, registrar, changer, tokens,
		httpapi.Options{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	return server
}

func TestServerLifecycle(t *testing.T) {
	server := newLifecycleServer(t)

	assert.False(t, server.Running(), "must not report ready before Start")

	errCh, err := server.Start()
	require.NoError(t, err)
	assert.True(t, server.Running())
	assert.NotEmpty(t, server.Addr())

	_, err = server.Start()
	require.Error(t, err, "second Start must be rejected")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	assert.False(t, server.Running(), "must not report ready after Stop")

	// The serve goroutine exits cleanly and closes the channel.
	for serveErr := range errCh {
		require.NoError(t, serveErr)
	}
}
