//go:build integration

package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/graphstore/store"
	"github.com/evalgo/graphstore/value"
)

func setupPersistence(t *testing.T) *store.Persistence {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := store.OpenSchemaDB(dsn)
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(ctx, db))

	p, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(ctx) })
	return p
}

func TestBatcher_FlushGraphValVisibleAfterFlush(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()
	require.NoError(t, p.NewGraph(ctx, "g1", "Graph"))

	b := NewBatcher(p)
	b.EnqueueGraphVal("g1", "name", "master", 1, value.Str("hello"))
	require.True(t, b.Pending("graph_val"))

	require.NoError(t, b.Flush(ctx))
	assert.False(t, b.Pending("graph_val"))

	v, ok, err := p.GraphValGet(ctx, "g1", "name", "master", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("hello")))
}
