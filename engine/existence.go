package engine

import "context"

// boolAncestryFallback mirrors valueAncestryFallback for existence flags.
// get's second return means a row was found at that (branch, rev) at all,
// whether extant=true or extant=false; a found extant=false row stops the
// walk exactly like a found extant=true row does, rather than being
// mistaken for "no row here yet" and falling through to an ancestor branch
// (I4, I6) — the same bug class valueAncestryFallback guards against.
func (e *Engine) boolAncestryFallback(branchName string, rev int, get func(branch string, rev int32) (bool, bool, error)) (extant bool, found bool, err error) {
	pairs, err := e.branches.Ancestry(branchName, rev)
	if err != nil {
		return false, false, err
	}
	for _, p := range pairs {
		v, rowFound, getErr := get(p.Branch, int32(p.Rev))
		if getErr != nil {
			return false, false, getErr
		}
		if rowFound {
			return v, true, nil
		}
	}
	return false, false, nil
}

// --- nodes ---

// SetNodeExists records node's existence in graph at the cursor. I4:
// existence flips can't be written retroactively (the FuturistWindow
// backing NodesCache rejects them).
func (e *Engine) SetNodeExists(ctx context.Context, graph, node string, exists bool) error {
	if err := e.nodes.SetExists(graph, node, e.curBranch, e.curRev, exists); err != nil {
		return err
	}
	e.batcher.EnqueueNode(graph, node, e.curBranch, int32(e.curRev), exists)
	return nil
}

// NodeExists reports whether node exists in graph at the cursor.
func (e *Engine) NodeExists(ctx context.Context, graph, node string) (bool, error) {
	if e.batcher.Pending("nodes") {
		if err := e.batcher.Flush(ctx); err != nil {
			return false, err
		}
	}
	if ok, err := e.nodes.Exists(graph, node, e.curBranch, e.curRev); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}

	exists, found, err := e.boolAncestryFallback(e.curBranch, e.curRev, func(branchName string, rev int32) (bool, bool, error) {
		return e.persistence.NodeExists(ctx, graph, node, branchName, rev)
	})
	if err != nil {
		return false, err
	}
	if found {
		_ = e.nodes.SetExists(graph, node, e.curBranch, e.curRev, exists)
	}
	return exists, nil
}

// Nodes returns every node extant in graph at the cursor. A node decided
// not-extant in the nearest branch that decided it must not resurface from
// an ancestor branch's stale "extant" row (P4), so the merge tracks every
// decided node — extant or not — in seen, separately from the extant-only
// out slice it returns.
func (e *Engine) Nodes(ctx context.Context, graph string) ([]string, error) {
	if e.batcher.Pending("nodes") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	cached, err := e.nodes.Nodes(graph, e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}

	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range pairs {
		rows, err := e.persistence.NodesExtant(ctx, graph, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if seen[r.Node] {
				continue
			}
			seen[r.Node] = true
			if r.Extant {
				out = append(out, r.Node)
			}
		}
	}
	return out, nil
}

// --- edges ---

// SetEdgeExists records the existence of edge (nodeA, nodeB, idx) in
// graph at the cursor. idx must be 0 for non-multi graphs (I5). In an
// undirected graph kind (Graph, MultiGraph), the reverse (nodeB, nodeA,
// idx) row is written in lockstep, so the adjacency view sees (a,b) and
// (b,a) as the same edge (P7).
func (e *Engine) SetEdgeExists(ctx context.Context, graph, nodeA, nodeB string, idx int, exists bool) error {
	if err := e.edges.SetExists(graph, nodeA, nodeB, idx, e.curBranch, e.curRev, exists); err != nil {
		return err
	}
	e.batcher.EnqueueEdge(graph, nodeA, nodeB, int32(idx), e.curBranch, int32(e.curRev), exists)

	directed, err := e.graphIsDirected(ctx, graph)
	if err != nil {
		return err
	}
	if !directed && nodeA != nodeB {
		if err := e.edges.SetExists(graph, nodeB, nodeA, idx, e.curBranch, e.curRev, exists); err != nil {
			return err
		}
		e.batcher.EnqueueEdge(graph, nodeB, nodeA, int32(idx), e.curBranch, int32(e.curRev), exists)
	}
	return nil
}

// graphIsDirected reports whether graph's registered kind is DiGraph or
// MultiDiGraph.
func (e *Engine) graphIsDirected(ctx context.Context, graph string) (bool, error) {
	kind, err := e.persistence.GraphType(ctx, graph)
	if err != nil {
		return false, err
	}
	return kind == "DiGraph" || kind == "MultiDiGraph", nil
}

// EdgeExists reports whether edge (nodeA, nodeB, idx) exists in graph at
// the cursor.
func (e *Engine) EdgeExists(ctx context.Context, graph, nodeA, nodeB string, idx int) (bool, error) {
	if e.batcher.Pending("edges") {
		if err := e.batcher.Flush(ctx); err != nil {
			return false, err
		}
	}
	if ok, err := e.edges.Exists(graph, nodeA, nodeB, idx, e.curBranch, e.curRev); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}

	exists, found, err := e.boolAncestryFallback(e.curBranch, e.curRev, func(branchName string, rev int32) (bool, bool, error) {
		return e.persistence.EdgeExists(ctx, graph, nodeA, nodeB, int32(idx), branchName, rev)
	})
	if err != nil {
		return false, err
	}
	if found {
		_ = e.edges.SetExists(graph, nodeA, nodeB, idx, e.curBranch, e.curRev, exists)
	}
	return exists, nil
}

// Successors returns the distinct nodes reachable from nodeA in graph at
// the cursor (P7).
func (e *Engine) Successors(ctx context.Context, graph, nodeA string) ([]string, error) {
	if e.batcher.Pending("edges") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	cached, err := e.edges.Successors(graph, nodeA, e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return e.fallbackNodeBs(ctx, graph, nodeA)
}

// Predecessors returns the distinct nodes with an edge into nodeB in
// graph at the cursor.
func (e *Engine) Predecessors(ctx context.Context, graph, nodeB string) ([]string, error) {
	if e.batcher.Pending("edges") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	cached, err := e.edges.Predecessors(graph, nodeB, e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return e.fallbackNodeAs(ctx, graph, nodeB)
}

// MultiEdges returns the indexes of every parallel edge from nodeA to
// nodeB extant at the cursor (I5).
func (e *Engine) MultiEdges(ctx context.Context, graph, nodeA, nodeB string) ([]int, error) {
	if e.batcher.Pending("edges") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	cached, err := e.edges.MultiEdges(graph, nodeA, nodeB, e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}

	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[int32]bool)
	var out []int
	for _, p := range pairs {
		rows, err := e.persistence.MultiEdges(ctx, graph, nodeA, nodeB, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if seen[r.Idx] {
				continue
			}
			seen[r.Idx] = true
			if r.Extant {
				out = append(out, int(r.Idx))
			}
		}
	}
	return out, nil
}

// fallbackNodeBs merges NodeBs rows across ancestry. A neighbor decided
// unreachable in the nearest branch that decided it must not resurface from
// an ancestor's stale row (P4), so seen tracks every decided neighbor
// separately from the reachable-only out slice.
func (e *Engine) fallbackNodeBs(ctx context.Context, graph, nodeA string) ([]string, error) {
	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range pairs {
		rows, err := e.persistence.NodeBs(ctx, graph, nodeA, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if seen[r.Node] {
				continue
			}
			seen[r.Node] = true
			if r.Extant {
				out = append(out, r.Node)
			}
		}
	}
	return out, nil
}

// fallbackNodeAs merges NodeAs rows across ancestry, mirroring
// fallbackNodeBs (P7).
func (e *Engine) fallbackNodeAs(ctx context.Context, graph, nodeB string) ([]string, error) {
	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range pairs {
		rows, err := e.persistence.NodeAs(ctx, graph, nodeB, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if seen[r.Node] {
				continue
			}
			seen[r.Node] = true
			if r.Extant {
				out = append(out, r.Node)
			}
		}
	}
	return out, nil
}
