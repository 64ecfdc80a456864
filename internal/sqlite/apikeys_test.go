package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/tracereplay/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAPIKeyRepository(NewTestDB(t))

	require.NoError(t, repo.Seed(ctx, map[string]string{"tok-a": "tenant-a", "tok-b": "tenant-b"}))

	tenant, err := repo.ResolveTenant(ctx, "tok-b")
	require.NoError(t, err)
	require.Equal(t, "tenant-b", tenant)

	_, err = repo.ResolveTenant(ctx, "tok-c")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Add(ctx, "tok-a", "tenant-z"))
	tenant, err = repo.ResolveTenant(ctx, "tok-a")
	require.NoError(t, err)
	require.Equal(t, "tenant-z", tenant)

	require.ErrorIs(t, repo.Add(ctx, "", "tenant"), repository.ErrInvalidInput)
}

func TestAPIKeyRepository_StoresHashes(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	require.NoError(t, NewAPIKeyRepository(db).Add(ctx, "plain-secret", "tenant"))

	var stored string
	require.NoError(t, db.QueryRow(`SELECT key_hash FROM api_keys`).Scan(&stored))
	require.NotEqual(t, "plain-secret", stored)
	require.Len(t, stored, 64)
}
