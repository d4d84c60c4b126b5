package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestL2(t *testing.T) *L2Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	l2, err := NewL2Cache(context.Background(), L2Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { l2.Close() })
	return l2
}

func TestL2Cache_SetThenGet(t *testing.T) {
	l2 := newTestL2(t)
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "k1", []byte("hello")))

	data, ok, err := l2.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)
}

func TestL2Cache_MissReturnsFalse(t *testing.T) {
	l2 := newTestL2(t)
	ctx := context.Background()

	_, ok, err := l2.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestL2Cache_InvalidateEvicts(t *testing.T) {
	l2 := newTestL2(t)
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "k1", []byte("hello")))
	require.NoError(t, l2.Invalidate(ctx, "k1"))

	_, ok, err := l2.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestL2Key_EscapesSeparator(t *testing.T) {
	k1 := L2Key([]string{"g1", "n:1"}, "attr", "master", 3)
	k2 := L2Key([]string{"g1", "n", "1"}, "attr", "master", 3)
	require.NotEqual(t, k1, k2)
}
