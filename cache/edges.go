package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// edgeAttrKeySep separates the fields packed into a composite attribute
// key; chosen as a control character that can never appear in a node name
// supplied through the façade (§6.2's encoding never produces it either).
const edgeAttrKeySep = "\x1f"

func edgeAttrKey(other string, idx int) string {
	return other + edgeAttrKeySep + strconv.Itoa(idx)
}

func parseEdgeAttrKey(key string) (other string, idx int, err error) {
	parts := strings.SplitN(key, edgeAttrKeySep, 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("cache: malformed edge attribute key %q", key)
	}
	idx, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("cache: malformed edge attribute key %q: %w", key, err)
	}
	return parts[0], idx, nil
}

// EdgesCache specializes EntityCache for edge existence (§4.3), keyed so
// that both directions have an O(fan-out)/O(fan-in) lookup path:
//
//   - forward index:     path=(graph, nodeA), attrKey=(nodeB, idx)
//   - predecessor index: path=(graph, nodeB), attrKey=(nodeA, idx)
//
// Both indexes are kept in lockstep by SetExists; they always agree
// because nothing but SetExists ever writes to either.
type EdgesCache struct {
	forward *EntityCache[bool]
	pred    *EntityCache[bool]
}

// NewEdgesCache builds an empty edge-existence cache.
func NewEdgesCache(branches Ancestor) *EdgesCache {
	isTombstone := func(v bool) bool { return !v }
	return &EdgesCache{
		forward: NewExistenceCache[bool](branches, isTombstone),
		pred:    NewExistenceCache[bool](branches, isTombstone),
	}
}

// SetExists records whether edge (nodeA, nodeB, idx) exists in graph at
// (branchName, rev). I5: idx is always 0 for non-multi graphs.
func (e *EdgesCache) SetExists(graph, nodeA, nodeB string, idx int, branchName string, rev int, exists bool) error {
	if err := e.forward.Store([]string{graph, nodeA}, edgeAttrKey(nodeB, idx), branchName, rev, exists); err != nil {
		return err
	}
	return e.pred.Store([]string{graph, nodeB}, edgeAttrKey(nodeA, idx), branchName, rev, exists)
}

// Exists reports whether edge (nodeA, nodeB, idx) exists at (branchName, rev).
func (e *EdgesCache) Exists(graph, nodeA, nodeB string, idx int, branchName string, rev int) (bool, error) {
	_, ok, err := e.forward.Retrieve([]string{graph, nodeA}, edgeAttrKey(nodeB, idx), branchName, rev)
	return ok, err
}

// Successors returns the distinct nodeB's reachable from nodeA in graph at
// (branchName, rev) (P7: the caller decides whether to also query the
// reverse direction for undirected graphs).
func (e *EdgesCache) Successors(graph, nodeA, branchName string, rev int) ([]string, error) {
	keys, err := e.forward.IterKeys([]string{graph, nodeA}, branchName, rev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		nodeB, _, err := parseEdgeAttrKey(k)
		if err != nil {
			return nil, err
		}
		if !seen[nodeB] {
			seen[nodeB] = true
			out = append(out, nodeB)
		}
	}
	return out, nil
}

// Predecessors returns the distinct nodeA's with an edge into nodeB in
// graph at (branchName, rev) — the O(fan-in) query the predecessor index
// exists for.
func (e *EdgesCache) Predecessors(graph, nodeB, branchName string, rev int) ([]string, error) {
	keys, err := e.pred.IterKeys([]string{graph, nodeB}, branchName, rev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		nodeA, _, err := parseEdgeAttrKey(k)
		if err != nil {
			return nil, err
		}
		if !seen[nodeA] {
			seen[nodeA] = true
			out = append(out, nodeA)
		}
	}
	return out, nil
}

// MultiEdges returns the indexes of every parallel edge from nodeA to
// nodeB extant in graph at (branchName, rev) (I5: enumerates parallel
// edges in multi graphs).
func (e *EdgesCache) MultiEdges(graph, nodeA, nodeB, branchName string, rev int) ([]int, error) {
	keys, err := e.forward.IterKeys([]string{graph, nodeA}, branchName, rev)
	if err != nil {
		return nil, err
	}
	var idxs []int
	for _, k := range keys {
		other, idx, err := parseEdgeAttrKey(k)
		if err != nil {
			return nil, err
		}
		if other == nodeB {
			idxs = append(idxs, idx)
		}
	}
	return idxs, nil
}

// Stats exposes the forward index's hit/miss/backfill counters.
func (e *EdgesCache) Stats() Stats { return e.forward.Stats }
