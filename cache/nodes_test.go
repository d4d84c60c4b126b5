package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/graphstore/branch"
)

func TestNodesCache_ExistsAfterCreate(t *testing.T) {
	idx := branch.NewIndex()
	nc := NewNodesCache(idx)

	require.NoError(t, nc.SetExists("g1", "a", branch.Root, 1, true))

	ok, err := nc.Exists("g1", "a", branch.Root, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := nc.CountNodes("g1", branch.Root, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNodesCache_RemovedNodeDropsFromExtantSet(t *testing.T) {
	idx := branch.NewIndex()
	nc := NewNodesCache(idx)

	require.NoError(t, nc.SetExists("g1", "a", branch.Root, 1, true))
	require.NoError(t, nc.SetExists("g1", "a", branch.Root, 2, false))

	ok, err := nc.Exists("g1", "a", branch.Root, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	nodes, err := nc.Nodes("g1", branch.Root, 2)
	require.NoError(t, err)
	assert.NotContains(t, nodes, "a")
}

func TestNodesCache_RetroactiveExistenceEditRejected(t *testing.T) {
	idx := branch.NewIndex()
	nc := NewNodesCache(idx)

	require.NoError(t, nc.SetExists("g1", "a", branch.Root, 5, true))
	err := nc.SetExists("g1", "a", branch.Root, 2, false)
	assert.Error(t, err)
}

func TestNodesCache_IndependentAcrossGraphs(t *testing.T) {
	idx := branch.NewIndex()
	nc := NewNodesCache(idx)

	require.NoError(t, nc.SetExists("g1", "a", branch.Root, 1, true))

	ok, err := nc.Exists("g2", "a", branch.Root, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
