package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/graphstore/branch"
)

// newCursorTestEngine builds an Engine with only the branch index wired,
// sufficient for exercising cursor logic that never touches persistence
// (SetRev, and SetBranch onto an already-registered branch).
func newCursorTestEngine() *Engine {
	idx := branch.NewIndex()
	return &Engine{branches: idx, curBranch: branch.Root, curRev: 0}
}

func TestEngine_SetRevWithinRootBranchAlwaysAllowed(t *testing.T) {
	e := newCursorTestEngine()
	require.NoError(t, e.SetRev(0))
	require.NoError(t, e.SetRev(5))
	assert.Equal(t, 5, e.Rev())
}

func TestEngine_SetRevBelowParentRevOnChildBranchFails(t *testing.T) {
	e := newCursorTestEngine()
	require.NoError(t, e.branches.Create("feature", branch.Root, 3))
	e.curBranch = "feature"
	e.curRev = 3

	err := e.SetRev(2)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 3, e.Rev())

	require.NoError(t, e.SetRev(4))
	assert.Equal(t, 4, e.Rev())
}

func TestEngine_SetBranchToExistingBranchBelowParentRevFails(t *testing.T) {
	e := newCursorTestEngine()
	require.NoError(t, e.branches.Create("feature", branch.Root, 3))
	e.curRev = 1

	err := e.SetBranch(nil, "feature")
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, branch.Root, e.Branch())
}

func TestEngine_SetBranchToExistingBranchAtOrAboveParentRevSucceeds(t *testing.T) {
	e := newCursorTestEngine()
	require.NoError(t, e.branches.Create("feature", branch.Root, 3))
	e.curRev = 3

	require.NoError(t, e.SetBranch(nil, "feature"))
	assert.Equal(t, "feature", e.Branch())
}
