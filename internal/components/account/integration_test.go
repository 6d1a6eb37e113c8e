//go:build integration

package account_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gatehouse_test"),
		postgres.WithUsername("gatehouse"),
		postgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return pool
}

func TestRepo_Postgres(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t)
	repo := account.NewPgRepo(pool)

	t.Run("create then find", func(t *testing.T) {
		res, err := repo.Create(ctx, account.CreateAccountIn{
			Username: "alice", PasswordHash: "digest", Name: "Alice", Email: "alice@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, account.Created, res.Outcome)

		byName, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, res.Account.ID, byName.ID)
		assert.Equal(t, "Alice", byName.DisplayName())

		byID, err := repo.FindByID(ctx, res.Account.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "alice", byID.Username)
	})

	t.Run("duplicate is rejected and the original kept", func(t *testing.T) {
		res, err := repo.Create(ctx, account.CreateAccountIn{Username: "alice", PasswordHash: "other", Name: "Mallory"})
		require.NoError(t, err)
		assert.Equal(t, account.DuplicateUsername, res.Outcome)

		acc, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "digest", acc.PasswordHash)
		assert.Equal(t, "Alice", acc.DisplayName())
	})

	t.Run("case sensitive and absent", func(t *testing.T) {
		acc, err := repo.FindByUsername(ctx, "ALICE")
		require.NoError(t, err)
		assert.Nil(t, acc)
	})

	t.Run("concurrent registrations of one username", func(t *testing.T) {
		const writers = 8
		outcomes := make(chan account.CreateOutcome, writers)

		var wg sync.WaitGroup
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := repo.Create(ctx, account.CreateAccountIn{Username: "race", PasswordHash: "digest"})
				assert.NoError(t, err)
				outcomes <- res.Outcome
			}()
		}
		wg.Wait()
		close(outcomes)

		created := 0
		for o := range outcomes {
			if o == account.Created {
				created++
			} else {
				assert.Equal(t, account.DuplicateUsername, o)
			}
		}
		assert.Equal(t, 1, created)

		// every connection went back to the pool
		assert.Equal(t, int32(0), pool.Stat().AcquiredConns())
	})
}
