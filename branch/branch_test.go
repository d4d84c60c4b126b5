package branch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndexSeedsRoot(t *testing.T) {
	idx := NewIndex()
	assert.True(t, idx.Exists(Root))

	parent, parentRev, err := idx.ParentOf(Root)
	require.NoError(t, err)
	assert.Equal(t, Root, parent)
	assert.Equal(t, 0, parentRev)
}

func TestCreateRequiresRegisteredParent(t *testing.T) {
	idx := NewIndex()
	err := idx.Create("feature", "ghost", 0)
	assert.Error(t, err)
}

func TestCreateRejectsDuplicateBranch(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Create("feature", Root, 0))
	err := idx.Create("feature", Root, 0)
	assert.Error(t, err)
}

func TestAncestryTerminatesAtRoot(t *testing.T) {
	// P8: active_branches(b, r) yields a finite sequence ending at master.
	idx := NewIndex()
	require.NoError(t, idx.Create("no_edge", Root, 1))
	require.NoError(t, idx.Create("triangle", "no_edge", 1))

	pairs, err := idx.Ancestry("triangle", 1)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, Pair{Branch: "triangle", Rev: 1}, pairs[0])
	assert.Equal(t, Pair{Branch: "no_edge", Rev: 1}, pairs[1])
	assert.Equal(t, Pair{Branch: Root, Rev: 1}, pairs[2])
}

func TestIsParentOfTransitive(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Create("no_edge", Root, 1))
	require.NoError(t, idx.Create("triangle", "no_edge", 1))

	ok, err := idx.IsParentOf(Root, "triangle")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = idx.IsParentOf("triangle", Root)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = idx.IsParentOf("triangle", "triangle")
	require.NoError(t, err)
	assert.False(t, ok)
}
