package db

import (
	"context"
	"errors"
	"net/url"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"cx-arcade-bot/internal/config"
)

func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// startPostgres returns the connection string of a fresh PostgreSQL container.
func startPostgres(t *testing.T) string {
	t.Helper()
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// databaseConfig converts a connection string into the config NewPool expects.
func databaseConfig(t *testing.T, connStr string) *config.DatabaseConfig {
	t.Helper()
	u, err := url.Parse(connStr)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	password, _ := u.User.Password()

	return &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		Name:     u.Path[1:],
		PoolSize: 4,
	}
}

func tableExists(t *testing.T, p *Pool, name string) bool {
	t.Helper()
	var exists bool
	err := p.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name,
	).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrations(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	p, err := NewPool(ctx, databaseConfig(t, connStr))
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Migrate())
	assert.True(t, tableExists(t, p, "accounts"))
	assert.True(t, tableExists(t, p, "wagers"))

	// second run is a no-op
	require.NoError(t, MigrateUp(connStr))

	require.NoError(t, MigrateDown(connStr, 1))
	assert.True(t, tableExists(t, p, "accounts"))
	assert.False(t, tableExists(t, p, "wagers"))

	require.NoError(t, MigrateDown(connStr, 1))
	assert.False(t, tableExists(t, p, "accounts"))
}

func TestWithTransaction(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	p, err := NewPool(ctx, databaseConfig(t, connStr))
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Migrate())

	insert := func(tx pgx.Tx, externalID, internalID int64) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO accounts (external_id, internal_id, balance, role, created_at) VALUES ($1, $2, 0, 'player', 0)`,
			externalID, internalID)
		return err
	}

	errBoom := errors.New("boom")
	err = WithTransaction(ctx, p.Pool, func(tx pgx.Tx) error {
		if err := insert(tx, 1, 1); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	var count int
	require.NoError(t, p.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count))
	assert.Equal(t, 0, count, "rolled back")

	require.NoError(t, WithTransaction(ctx, p.Pool, func(tx pgx.Tx) error {
		return insert(tx, 2, 1)
	}))
	require.NoError(t, p.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count))
	assert.Equal(t, 1, count)
}
