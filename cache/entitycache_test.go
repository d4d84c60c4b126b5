package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/graphstore/branch"
	"github.com/evalgo/graphstore/value"
)

func TestEntityCache_WriteThenRead(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)

	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))

	v, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", branch.Root, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("red")))
}

func TestEntityCache_EffectiveAtLaterRev(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))

	v, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", branch.Root, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("red")))
}

func TestEntityCache_MissBeforeFirstWrite(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 5, value.Str("red")))

	_, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", branch.Root, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntityCache_Tombstone(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 2, value.Tombstone))

	_, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", branch.Root, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := c.IterKeys([]string{"g1", "n1"}, branch.Root, 2)
	require.NoError(t, err)
	assert.NotContains(t, keys, "color")
}

func TestEntityCache_BranchInheritanceBackfill(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))
	require.NoError(t, idx.Create("feature", branch.Root, 1))

	v, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", "feature", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("red")))
	assert.Equal(t, int64(1), c.Stats.Backfills)

	// Second lookup on the same branch/rev should now be a direct hit, not
	// another backfill.
	_, _, err = c.Retrieve([]string{"g1", "n1"}, "color", "feature", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Stats.Backfills)
}

func TestEntityCache_BranchOverrideIsIsolated(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))
	require.NoError(t, idx.Create("feature", branch.Root, 1))
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", "feature", 2, value.Str("blue")))

	v, ok, err := c.Retrieve([]string{"g1", "n1"}, "color", "feature", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("blue")))

	v, ok, err = c.Retrieve([]string{"g1", "n1"}, "color", branch.Root, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Str("red")))
}

func TestEntityCache_IterKeysAcrossMultipleAttrs(t *testing.T) {
	idx := branch.NewIndex()
	c := NewAttrCache(idx)
	require.NoError(t, c.Store([]string{"g1", "n1"}, "color", branch.Root, 1, value.Str("red")))
	require.NoError(t, c.Store([]string{"g1", "n1"}, "weight", branch.Root, 2, value.Int(3)))

	n, err := c.CountKeys([]string{"g1", "n1"}, branch.Root, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
