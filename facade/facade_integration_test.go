//go:build integration

package facade

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
	"github.com/evalgo/graphstore/engine"
	"github.com/evalgo/graphstore/value"
)

func setupStore(t *testing.T) *Store {
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

	eng, err := engine.Open(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, eng.InitSchema(ctx))
	s := New(eng)
	t.Cleanup(func() { s.Close(ctx) })
	return s
}

// TestStore_TriangleAcrossBranches is spec's end-to-end scenario 1: a
// triangle built on a grandchild branch must not leak back to master or
// the intermediate branch that removed the original edge.
func TestStore_TriangleAcrossBranches(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g, err := s.NewGraph(ctx, "tri", "Graph")
	require.NoError(t, err)

	require.NoError(t, g.AddNode(ctx, "0"))
	require.NoError(t, g.AddNode(ctx, "1"))
	require.NoError(t, g.AddEdge(ctx, "0", "1", 0))
	require.NoError(t, s.SetRev(1))

	require.NoError(t, s.SetBranch(ctx, "no_edge"))
	require.NoError(t, g.RemoveEdge(ctx, "0", "1", 0))

	require.Equal(t, "no_edge", s.Branch())
	require.Equal(t, 1, s.Rev())
	require.NoError(t, s.SetBranch(ctx, "triangle"))
	require.NoError(t, g.AddNode(ctx, "2"))
	require.NoError(t, g.AddEdge(ctx, "0", "1", 0))
	require.NoError(t, g.AddEdge(ctx, "1", "2", 0))
	require.NoError(t, g.AddEdge(ctx, "2", "0", 0))

	require.NoError(t, s.SetBranch(ctx, "master"))
	require.NoError(t, s.SetRev(0))
	has, err := g.HasEdge(ctx, "0", "1", 0)
	require.NoError(t, err)
	assert.True(t, has)
	hasNode2, err := g.HasNode(ctx, "2")
	require.NoError(t, err)
	assert.False(t, hasNode2)

	require.NoError(t, s.SetRev(1))
	require.NoError(t, s.SetBranch(ctx, "no_edge"))
	has, err = g.HasEdge(ctx, "0", "1", 0)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.SetBranch(ctx, "triangle"))
	require.NoError(t, s.SetRev(1))
	for _, pair := range [][2]string{{"0", "1"}, {"1", "2"}, {"2", "0"}} {
		has, err = g.HasEdge(ctx, pair[0], pair[1], 0)
		require.NoError(t, err)
		assert.True(t, has)
	}
	hasNode2, err = g.HasNode(ctx, "2")
	require.NoError(t, err)
	assert.True(t, hasNode2)
}

// TestStore_TombstoneResurrection is spec's end-to-end scenario 2.
func TestStore_TombstoneResurrection(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g, err := s.NewGraph(ctx, "g", "Graph")
	require.NoError(t, err)

	require.NoError(t, g.SetAttr(ctx, "x", value.Int(1)))
	require.NoError(t, s.SetRev(1))
	require.NoError(t, g.DelAttr(ctx, "x"))
	require.NoError(t, s.SetRev(2))
	require.NoError(t, g.SetAttr(ctx, "x", value.Int(2)))

	require.NoError(t, s.SetRev(0))
	v, err := g.Attr(ctx, "x")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, value.Int(1)))

	require.NoError(t, s.SetRev(1))
	_, err = g.Attr(ctx, "x")
	assert.Error(t, err)

	require.NoError(t, s.SetRev(2))
	v, err = g.Attr(ctx, "x")
	require.NoError(t, err)
	assert.True(t, value.Equal(v, value.Int(2)))
}

func TestStore_UndirectedGraphEdgeIsSymmetric(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g, err := s.NewGraph(ctx, "u", "Graph")
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(ctx, "a", "b", 0))

	has, err := g.HasEdge(ctx, "b", "a", 0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_DirectedGraphEdgeIsNotSymmetric(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g, err := s.NewGraph(ctx, "d", "DiGraph")
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(ctx, "a", "b", 0))

	has, err := g.HasEdge(ctx, "b", "a", 0)
	require.NoError(t, err)
	assert.False(t, has)
}
