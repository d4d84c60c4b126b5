package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowWriteRead(t *testing.T) {
	w := NewWindow[string]()
	w.Set(0, "a")
	w.Set(2, "b")
	w.Set(5, "c")

	v, ok := w.GetEffective(0)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = w.GetEffective(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = w.GetEffective(2)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = w.GetEffective(4)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = w.GetEffective(10)
	require.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = w.GetEffective(-1)
	assert.False(t, ok)
}

func TestWindowMonotoneWithinBranch(t *testing.T) {
	// P5: two writes r1<r2 yield r1's value at r1<=r<r2, r2's value at r>=r2.
	w := NewWindow[int]()
	w.Set(1, 100)
	w.Set(5, 200)

	for r := 1; r < 5; r++ {
		v, ok := w.GetEffective(r)
		require.True(t, ok)
		assert.Equal(t, 100, v, "rev %d", r)
	}
	for r := 5; r < 10; r++ {
		v, ok := w.GetEffective(r)
		require.True(t, ok)
		assert.Equal(t, 200, v, "rev %d", r)
	}
}

func TestWindowOutOfOrderInsert(t *testing.T) {
	w := NewWindow[string]()
	w.Set(10, "z")
	w.Set(0, "a")
	w.Set(5, "m")

	v, ok := w.GetEffective(7)
	require.True(t, ok)
	assert.Equal(t, "m", v)

	v, ok = w.GetEffective(0)
	require.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestWindowOverwriteExactRevision(t *testing.T) {
	w := NewWindow[string]()
	w.Set(3, "first")
	w.Set(3, "second")

	v, ok := w.GetEffective(3)
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, w.Len())
}

func TestWindowPrevNextRev(t *testing.T) {
	w := NewWindow[int]()
	w.Set(1, 1)
	w.Set(3, 3)
	w.Set(7, 7)

	r, ok := w.PrevRev(3)
	require.True(t, ok)
	assert.Equal(t, 1, r)

	r, ok = w.NextRev(3)
	require.True(t, ok)
	assert.Equal(t, 7, r)

	_, ok = w.PrevRev(1)
	assert.False(t, ok)

	_, ok = w.NextRev(7)
	assert.False(t, ok)
}

func TestWindowDeleteExactRevision(t *testing.T) {
	w := NewWindow[string]()
	w.Set(1, "a")
	w.Set(2, "b")

	require.NoError(t, w.Delete(2))
	v, ok := w.GetEffective(5)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	err := w.Delete(2)
	assert.Error(t, err, "deleting an already-removed revision must fail")
}

func TestWindowDeleteMissingRevision(t *testing.T) {
	w := NewWindow[string]()
	w.Set(1, "a")
	err := w.Delete(99)
	assert.Error(t, err)
}

func TestWindowAllAscending(t *testing.T) {
	w := NewWindow[int]()
	for _, r := range []int{5, 1, 9, 3} {
		w.Set(r, r*10)
	}
	entries := w.All()
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Rev, entries[i].Rev)
	}
}

func TestFuturistWindowRejectsRetroactiveWrite(t *testing.T) {
	f := NewFuturistWindow[bool]()
	require.NoError(t, f.Set(5, true))
	require.NoError(t, f.Set(10, false))

	err := f.Set(7, true)
	assert.Error(t, err, "writing at rev 7 after rev 10 already recorded must be rejected")

	// Same-or-later revision remains legal.
	assert.NoError(t, f.Set(10, true))
	assert.NoError(t, f.Set(11, false))
}
