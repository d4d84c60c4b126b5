package cache

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/graphstore/branch"
)

func TestEdgesCache_ExistsBothDirectionsIndexed(t *testing.T) {
	idx := branch.NewIndex()
	ec := NewEdgesCache(idx)

	require.NoError(t, ec.SetExists("g1", "a", "b", 0, branch.Root, 1, true))

	ok, err := ec.Exists("g1", "a", "b", 0, branch.Root, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	succ, err := ec.Successors("g1", "a", branch.Root, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, succ)

	pred, err := ec.Predecessors("g1", "b", branch.Root, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, pred)
}

func TestEdgesCache_MultiEdgesDistinctByIndex(t *testing.T) {
	idx := branch.NewIndex()
	ec := NewEdgesCache(idx)

	require.NoError(t, ec.SetExists("g1", "a", "b", 0, branch.Root, 1, true))
	require.NoError(t, ec.SetExists("g1", "a", "b", 1, branch.Root, 2, true))

	idxs, err := ec.MultiEdges("g1", "a", "b", branch.Root, 2)
	require.NoError(t, err)
	sort.Ints(idxs)
	assert.Equal(t, []int{0, 1}, idxs)
}

func TestEdgesCache_RemovedEdgeDropsFromBothIndexes(t *testing.T) {
	idx := branch.NewIndex()
	ec := NewEdgesCache(idx)

	require.NoError(t, ec.SetExists("g1", "a", "b", 0, branch.Root, 1, true))
	require.NoError(t, ec.SetExists("g1", "a", "b", 0, branch.Root, 2, false))

	ok, err := ec.Exists("g1", "a", "b", 0, branch.Root, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	succ, err := ec.Successors("g1", "a", branch.Root, 2)
	require.NoError(t, err)
	assert.Empty(t, succ)

	pred, err := ec.Predecessors("g1", "b", branch.Root, 2)
	require.NoError(t, err)
	assert.Empty(t, pred)
}

func TestEdgesCache_FanInFanOutWithMultipleNeighbors(t *testing.T) {
	idx := branch.NewIndex()
	ec := NewEdgesCache(idx)

	require.NoError(t, ec.SetExists("g1", "a", "b", 0, branch.Root, 1, true))
	require.NoError(t, ec.SetExists("g1", "a", "c", 0, branch.Root, 2, true))
	require.NoError(t, ec.SetExists("g1", "z", "c", 0, branch.Root, 3, true))

	succ, err := ec.Successors("g1", "a", branch.Root, 3)
	require.NoError(t, err)
	sort.Strings(succ)
	assert.Equal(t, []string{"b", "c"}, succ)

	pred, err := ec.Predecessors("g1", "c", branch.Root, 3)
	require.NoError(t, err)
	sort.Strings(pred)
	assert.Equal(t, []string{"a", "z"}, pred)
}
