//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/anicka-net/ossuary/internal/iocache"
	"github.com/anicka-net/ossuary/schema"
)

// TestStoreWithPostgreSQL migrates and exercises the score cache against a
// real PostgreSQL server.
func TestStoreWithPostgreSQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "secret123",
			"POSTGRES_DB":       "ossuary",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://postgres:secret123@%s:%s/ossuary?sslmode=disable", host, port.Port())

	require.NoError(t, iocache.Migrate(schema.PostgreSQLBackend, connStr, -1))

	store, err := iocache.Open(schema.PostgreSQLBackend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now().UTC()
	write := func(name string, value int, at time.Time) {
		score := &schema.Score{
			Package:      name,
			Ecosystem:    schema.EcosystemNpm,
			Value:        value,
			Level:        schema.LevelFromScore(value),
			Semaphore:    schema.LevelFromScore(value).Semaphore(),
			InputsHash:   "hash",
			ComputedAt:   at,
			ModelVersion: schema.ModelVersion,
		}
		require.NoError(t, store.Write(ctx, score, ""))
	}

	write("riser", 20, now.Add(-2*time.Hour))
	write("riser", 75, now.Add(-1*time.Hour))

	got, err := store.Read(ctx, schema.EcosystemNpm, "riser", "", 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 75, got.Value)

	movers, err := store.Movers(ctx, 10, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, movers, 1)
	assert.Equal(t, 55, movers[0].Delta)

	history, err := store.History(ctx, schema.EcosystemNpm, "riser", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
