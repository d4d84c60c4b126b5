// Package cache implements EntityCache (§4.3): the multi-key index from
// (graph, entity-path, attribute-key, branch) to a RevisionHistory, plus
// the derived "extant keys" index, and the two concrete specializations
// (NodesCache, EdgesCache) needed for existence tracking.
package cache

// PathMap is a small typed auto-vivifying tree keyed by a variable-length
// path of string segments, used to store one Leaf per distinct path
// without pre-declaring the path's depth. It is the Go rendering of the
// design note on "deep multi-level defaulting", itself grounded on the
// StructuredDefaultDict / PickyDefaultDict auto-vivifying nested default
// dicts the cache layer's history and extant indexes are ported from:
// insertion below the leaf level is impossible because the only mutator
// is GetOrCreate, which always returns a pointer to the leaf slot at the
// full path's depth.
type PathMap[Leaf any] struct {
	children map[string]*PathMap[Leaf]
	leaf     *Leaf
}

// NewPathMap returns an empty tree.
func NewPathMap[Leaf any]() *PathMap[Leaf] {
	return &PathMap[Leaf]{children: make(map[string]*PathMap[Leaf])}
}

// GetOrCreate returns a pointer to the leaf slot at path, creating every
// intermediate node along the way on first access.
func (m *PathMap[Leaf]) GetOrCreate(path []string) *Leaf {
	node := m
	for _, seg := range path {
		child, ok := node.children[seg]
		if !ok {
			child = NewPathMap[Leaf]()
			node.children[seg] = child
		}
		node = child
	}
	if node.leaf == nil {
		var zero Leaf
		node.leaf = &zero
	}
	return node.leaf
}

// Get returns the leaf at path without creating anything; ok is false if
// no value (or no intermediate node) exists at that path.
func (m *PathMap[Leaf]) Get(path []string) (leaf *Leaf, ok bool) {
	node := m
	for _, seg := range path {
		child, found := node.children[seg]
		if !found {
			return nil, false
		}
		node = child
	}
	if node.leaf == nil {
		return nil, false
	}
	return node.leaf, true
}

// joinPath builds the lookup key for a (path..., extra...) tuple. The
// entity path plus attribute key plus branch name (for history) or just
// the entity path plus branch name (for the extant index) are all valid
// inputs — PathMap doesn't care about the meaning of each segment.
func joinPath(path []string, extra ...string) []string {
	out := make([]string, 0, len(path)+len(extra))
	out = append(out, path...)
	out = append(out, extra...)
	return out
}
