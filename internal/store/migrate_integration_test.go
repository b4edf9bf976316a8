// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/urang-market/accounts/internal/auth"
	authpg "github.com/urang-market/accounts/internal/auth/postgres"
	"github.com/urang-market/accounts/internal/store"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestMigrator_FullCycle(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(t, ctx)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, migrator.Up())

	version, dirty, err = migrator.Version()
	require.NoError(t, err)
	assert.Greater(t, version, uint(0), "Up() should apply at least one migration")
	assert.False(t, dirty)

	// Up is idempotent.
	require.NoError(t, migrator.Up())

	require.NoError(t, migrator.Down())

	version, dirty, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestUserRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(t, ctx)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := store.Connect(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	repo := authpg.NewUserRepository(pool)

	user, err := auth.NewUser("alice@example.com", "$argon2id$fake")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		dup, err := auth.NewUser("ALICE@example.com", "$argon2id$other")
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicate)
	})

	t.Run("fetch round trip", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "Alice@Example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "$argon2id$new"))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$new", got.PasswordHash)
	})
}
