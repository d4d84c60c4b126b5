//go:build integration

package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/graphstore/config"
	"github.com/evalgo/graphstore/value"
)

func setupEngine(t *testing.T) *Engine {
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

	opts := config.DefaultOptions()
	opts.PostgresDSN = dsn

	e, err := Open(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, e.InitSchema(ctx))
	t.Cleanup(func() { e.Close(ctx) })
	return e
}

func TestEngine_GraphAttrRoundTripsThroughCache(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, e.SetGraphAttr(ctx, "g1", "name", value.Str("hello")))

	v, err := e.GraphAttr(ctx, "g1", "name")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, value.Str("hello")))
}

func TestEngine_GraphAttrSurvivesCommitAndRestart(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, e.SetGraphAttr(ctx, "g1", "name", value.Str("hello")))
	require.NoError(t, e.Commit(ctx))

	v, err := e.GraphAttr(ctx, "g1", "name")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, value.Str("hello")))
}

func TestEngine_BranchCursorImplicitCreationAndValueError(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.SetRev(3))
	require.NoError(t, e.SetBranch(ctx, "feature"))
	assert.Equal(t, "feature", e.Branch())
	assert.Equal(t, 3, e.Rev())

	require.NoError(t, e.SetBranch(ctx, "master"))
	err := e.SetBranch(ctx, "feature")
	require.NoError(t, err)

	err = e.SetRev(1)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	require.NoError(t, e.SetBranch(ctx, "master"))
	require.NoError(t, e.SetRev(1))
	err = e.SetBranch(ctx, "feature")
	assert.ErrorAs(t, err, &ve)
}

func TestEngine_NodeAndEdgeExistenceFallsBackThroughPersistence(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.NewGraph(ctx, "g1", "DiGraph"))
	require.NoError(t, e.SetNodeExists(ctx, "g1", "a", true))
	require.NoError(t, e.SetNodeExists(ctx, "g1", "b", true))
	require.NoError(t, e.SetEdgeExists(ctx, "g1", "a", "b", 0, true))
	require.NoError(t, e.Commit(ctx))

	ok, err := e.NodeExists(ctx, "g1", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	succ, err := e.Successors(ctx, "g1", "a")
	require.NoError(t, err)
	assert.Contains(t, succ, "b")
}

func TestEngine_DelGraphRemovesAttributesAndExistence(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.NewGraph(ctx, "g1", "Graph"))
	require.NoError(t, e.SetGraphAttr(ctx, "g1", "k", value.Int(1)))
	require.NoError(t, e.Commit(ctx))

	require.NoError(t, e.DelGraph(ctx, "g1"))
	ok, err := e.GraphExists(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok)
}
