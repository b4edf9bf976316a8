// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package memory_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urang-market/accounts/internal/auth"
	"github.com/urang-market/accounts/internal/auth/memory"
)

func newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	user, err := auth.NewUser(email, "$argon2id$fake")
	require.NoError(t, err)
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch round trip", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newUser(t, "alice@example.com")
		require.NoError(t, repo.Create(ctx, user))

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)

		byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("email lookup ignores case", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newUser(t, "alice@example.com")
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByEmail(ctx, "ALICE@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		repo := memory.NewUserRepository()
		require.NoError(t, repo.Create(ctx, newUser(t, "alice@example.com")))

		err := repo.Create(ctx, newUser(t, "Alice@example.com"))
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicate)
	})

	t.Run("missing records report not found", func(t *testing.T) {
		repo := memory.NewUserRepository()

		_, err := repo.GetByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)

		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		err = repo.UpdatePasswordHash(ctx, ulid.Make(), "$argon2id$other")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("update replaces only the hash", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newUser(t, "alice@example.com")
		require.NoError(t, repo.Create(ctx, user))

		require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "$argon2id$new"))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$new", got.PasswordHash)
		assert.Equal(t, user.Email, got.Email)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newUser(t, "alice@example.com")
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.PasswordHash = "mutated"

		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.PasswordHash)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		repo := memory.NewUserRepository()
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		require.Error(t, repo.Create(cancelled, newUser(t, "alice@example.com")))
		_, err := repo.GetByEmail(cancelled, "alice@example.com")
		require.Error(t, err)
	})
}
