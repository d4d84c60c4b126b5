package cache

import "github.com/evalgo/graphstore/value"

// NewAttrCache builds an EntityCache over the canonical Value domain, used
// for graph attributes (path=(graph)), node attributes (path=(graph,
// node)), and edge attributes (path=(graph, nodeA, nodeB, idx)) — the
// three "value" instances out of §4.3's four concrete EntityCache uses.
func NewAttrCache(branches Ancestor) *EntityCache[value.Value] {
	return NewValueCache[value.Value](branches, value.Value.IsTombstone)
}
