package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evalgo/graphstore/value"
)

func TestBatcher_PendingReflectsBufferedTables(t *testing.T) {
	b := NewBatcher(nil)
	assert.False(t, b.Pending("graph_val"))

	b.EnqueueGraphVal("g1", "k1", "master", 1, value.Str("x"))
	assert.True(t, b.Pending("graph_val"))
	assert.False(t, b.Pending("nodes"))

	b.EnqueueNode("g1", "a", "master", 1, true)
	assert.True(t, b.Pending("nodes"))
}

func TestBatcher_PendingUnknownTableIsFalse(t *testing.T) {
	b := NewBatcher(nil)
	assert.False(t, b.Pending("not_a_table"))
}
