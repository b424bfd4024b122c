//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/storefront/internal/storage"
)

func setupStore(ctx context.Context, t *testing.T) *Store {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Schema must tolerate being applied twice.
	require.NoError(t, RunMigrations(ctx, pool))

	return NewStore(pool)
}

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()
	s := setupStore(ctx, t)

	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, "client:a:cart")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "client:a:cart", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "client:a:cart", []byte(`[{"name":"Bamboo Relaxed Tee","price":"32","qty":1}]`)))

	got, err := s.Get(ctx, "client:a:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Bamboo Relaxed Tee","price":"32","qty":1}]`, string(got))

	scoped := storage.Scope(s, "b")
	require.NoError(t, storage.SetJSON(ctx, scoped, storage.KeyOrderTotal, "78.24"))

	var total string
	ok, err := storage.GetJSON(ctx, scoped, storage.KeyOrderTotal, &total)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "78.24", total)
}
