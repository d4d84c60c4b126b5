//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/graphstore/value"
)

func setupPostgresContainer(t *testing.T) (string, func()) {
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
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return dsn, cleanup
}

func setupPersistence(t *testing.T) *Persistence {
	dsn, cleanup := setupPostgresContainer(t)
	t.Cleanup(cleanup)

	db, err := OpenSchemaDB(dsn)
	require.NoError(t, err)
	require.NoError(t, InitSchema(context.Background(), db))

	p, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func TestPersistence_GlobalsSeeded(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()

	v, ok, err := p.GlobalGet(ctx, "branch")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "master", *v)
}

func TestPersistence_GraphValSetThenGet(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, p.GraphValSet(ctx, "g1", "name", "master", 1, value.Str("hello")))

	v, ok, err := p.GraphValGet(ctx, "g1", "name", "master", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("hello")))
}

func TestPersistence_HiRevSelectsMostRecentAtOrBeforeRev(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, p.GraphValSet(ctx, "g1", "name", "master", 1, value.Str("v1")))
	require.NoError(t, p.GraphValSet(ctx, "g1", "name", "master", 5, value.Str("v5")))

	v, ok, err := p.GraphValGet(ctx, "g1", "name", "master", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("v1")))

	v, ok, err = p.GraphValGet(ctx, "g1", "name", "master", 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("v5")))
}

func TestPersistence_NodeExistenceAndEdgeFanOut(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.NewGraph(ctx, "g1", "DiGraph"))
	require.NoError(t, p.NodeSet(ctx, "g1", "a", "master", 1, true))
	require.NoError(t, p.NodeSet(ctx, "g1", "b", "master", 1, true))
	require.NoError(t, p.EdgeSet(ctx, "g1", "a", "b", 0, "master", 2, true))

	extant, found, err := p.EdgeExists(ctx, "g1", "a", "b", 0, "master", 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, extant)

	bs, err := p.NodeBs(ctx, "g1", "a", "master", 2)
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, "b", bs[0].Node)
	assert.True(t, bs[0].Extant)
}

func TestPersistence_DelGraphCascades(t *testing.T) {
	p := setupPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, p.NodeSet(ctx, "g1", "a", "master", 1, true))
	require.NoError(t, p.DelGraph(ctx, "g1"))

	n, err := p.CtGraph(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, found, err := p.NodeExists(ctx, "g1", "a", "master", 1)
	require.NoError(t, err)
	assert.False(t, found)
}
