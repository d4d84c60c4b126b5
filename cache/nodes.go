package cache

// NodesCache specializes EntityCache for node existence (§4.3). Existence
// is bool, stored via FuturistWindow so flips can't be written
// retroactively; false is stored as an ordinary tombstone so a
// never-existed or since-removed node naturally drops out of the extant
// set for its graph.
type NodesCache struct {
	cache *EntityCache[bool]
}

// NewNodesCache builds an empty node-existence cache.
func NewNodesCache(branches Ancestor) *NodesCache {
	return &NodesCache{
		cache: NewExistenceCache[bool](branches, func(v bool) bool { return !v }),
	}
}

// SetExists records whether node exists in graph at (branchName, rev).
func (n *NodesCache) SetExists(graph, node, branchName string, rev int, exists bool) error {
	return n.cache.Store([]string{graph}, node, branchName, rev, exists)
}

// Exists reports whether node exists in graph at (branchName, rev).
func (n *NodesCache) Exists(graph, node, branchName string, rev int) (bool, error) {
	_, ok, err := n.cache.Retrieve([]string{graph}, node, branchName, rev)
	return ok, err
}

// Nodes returns every node extant in graph at (branchName, rev).
func (n *NodesCache) Nodes(graph, branchName string, rev int) ([]string, error) {
	return n.cache.IterKeys([]string{graph}, branchName, rev)
}

// CountNodes returns the number of nodes extant in graph at (branchName, rev).
func (n *NodesCache) CountNodes(graph, branchName string, rev int) (int, error) {
	return n.cache.CountKeys([]string{graph}, branchName, rev)
}

// Stats exposes the underlying EntityCache's hit/miss/backfill counters.
func (n *NodesCache) Stats() Stats { return n.cache.Stats }
