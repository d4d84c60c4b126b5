package engine

import (
	"context"
	"strconv"

	"github.com/evalgo/graphstore/cache"
	"github.com/evalgo/graphstore/store"
	"github.com/evalgo/graphstore/value"
)

// valueAncestryFallback walks the branch ancestry of (branchName, rev),
// calling get against each ancestor in turn — the Engine-level equivalent
// of the hi-rev-≤r join, extended across branches (§4.4: "the Engine, not
// SQL, performs the ancestry walk"). get's found return means a row
// exists at that (branch, rev) at all; a found tombstone stops the walk
// exactly like a found live value does — it must not be treated as a miss
// and fall through to an ancestor branch (I4, I6): a tombstone in the
// nearest branch shadows any live value further back, the same way
// cache.EntityCache.Retrieve already behaves. ok reports a live value was
// found; deleted reports the stop was due to an explicit tombstone, so
// callers can distinguish "deleted" from "never-set" in KeyNotFoundError.
func (e *Engine) valueAncestryFallback(branchName string, rev int, get func(branch string, rev int32) (value.Value, bool, error)) (v value.Value, ok bool, deleted bool, err error) {
	pairs, err := e.branches.Ancestry(branchName, rev)
	if err != nil {
		return value.Value{}, false, false, err
	}
	for _, p := range pairs {
		rowVal, found, getErr := get(p.Branch, int32(p.Rev))
		if getErr != nil {
			return value.Value{}, false, false, getErr
		}
		if found {
			if rowVal.IsTombstone() {
				return value.Value{}, false, true, nil
			}
			return rowVal, true, false, nil
		}
	}
	return value.Value{}, false, false, nil
}

// --- graph attributes ---

// SetGraphAttr stores v for key on graph at the cursor, updating L1
// synchronously and enqueueing the durable write (§4.5).
func (e *Engine) SetGraphAttr(ctx context.Context, graph, key string, v value.Value) error {
	if err := e.graphAttrs.Store([]string{graph}, key, e.curBranch, e.curRev, v); err != nil {
		return err
	}
	e.batcher.EnqueueGraphVal(graph, key, e.curBranch, int32(e.curRev), v)
	if e.l2 != nil {
		_ = e.l2.Invalidate(ctx, cache.L2Key([]string{graph}, key, e.curBranch, e.curRev))
	}
	return nil
}

// DelGraphAttr tombstones key on graph at the cursor.
func (e *Engine) DelGraphAttr(ctx context.Context, graph, key string) error {
	return e.SetGraphAttr(ctx, graph, key, value.Tombstone)
}

// GraphAttr reads key on graph effective at the cursor, trying L1, then
// L2, then Persistence's ancestry-walked fallback (§4.3).
func (e *Engine) GraphAttr(ctx context.Context, graph, key string) (value.Value, error) {
	if e.batcher.Pending("graph_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return value.Value{}, err
		}
	}

	if v, ok, err := e.graphAttrs.Retrieve([]string{graph}, key, e.curBranch, e.curRev); err != nil {
		return value.Value{}, err
	} else if ok {
		return v, nil
	}

	l2Key := cache.L2Key([]string{graph}, key, e.curBranch, e.curRev)
	if e.l2 != nil {
		if raw, ok, err := e.l2.Get(ctx, l2Key); err == nil && ok {
			v, err := value.Decode(string(raw))
			if err == nil {
				_ = e.graphAttrs.Store([]string{graph}, key, e.curBranch, e.curRev, v)
				return v, nil
			}
		}
	}

	v, ok, deleted, err := e.valueAncestryFallback(e.curBranch, e.curRev, func(branchName string, rev int32) (value.Value, bool, error) {
		return e.persistence.GraphValGet(ctx, graph, key, branchName, rev)
	})
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		reason := "never-set"
		if deleted {
			reason = "deleted"
		}
		return value.Value{}, &store.KeyNotFoundError{Path: []string{graph}, Key: key, Branch: e.curBranch, Rev: e.curRev, Reason: reason}
	}

	_ = e.graphAttrs.Store([]string{graph}, key, e.curBranch, e.curRev, v)
	if e.l2 != nil {
		if raw, err := value.Encode(v); err == nil {
			_ = e.l2.Set(ctx, l2Key, []byte(raw))
		}
	}
	return v, nil
}

// GraphAttrs enumerates every non-deleted attribute on graph effective at
// the cursor, merging ancestor branches key-by-key (nearest branch wins).
// A key tombstoned in the nearest branch that decided it is excluded from
// the result and must not be resurrected from an ancestor branch (I4, I6,
// P4), so the merge tracks every decided key — live or tombstoned — in
// seen, separately from the live-only out map it returns.
func (e *Engine) GraphAttrs(ctx context.Context, graph string) (map[string]value.Value, error) {
	if e.batcher.Pending("graph_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make(map[string]value.Value)
	for _, p := range pairs {
		items, err := e.persistence.GraphValItems(ctx, graph, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for k, v := range items {
			if seen[k] {
				continue
			}
			seen[k] = true
			if !v.IsTombstone() {
				out[k] = v
			}
		}
	}
	return out, nil
}

// --- node attributes ---

// SetNodeAttr stores v for key on node in graph at the cursor.
func (e *Engine) SetNodeAttr(ctx context.Context, graph, node, key string, v value.Value) error {
	path := []string{graph, node}
	if err := e.nodeAttrs.Store(path, key, e.curBranch, e.curRev, v); err != nil {
		return err
	}
	e.batcher.EnqueueNodeVal(graph, node, key, e.curBranch, int32(e.curRev), v)
	if e.l2 != nil {
		_ = e.l2.Invalidate(ctx, cache.L2Key(path, key, e.curBranch, e.curRev))
	}
	return nil
}

// DelNodeAttr tombstones key on node in graph at the cursor.
func (e *Engine) DelNodeAttr(ctx context.Context, graph, node, key string) error {
	return e.SetNodeAttr(ctx, graph, node, key, value.Tombstone)
}

// NodeAttr reads key on node in graph effective at the cursor.
func (e *Engine) NodeAttr(ctx context.Context, graph, node, key string) (value.Value, error) {
	if e.batcher.Pending("node_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return value.Value{}, err
		}
	}
	path := []string{graph, node}

	if v, ok, err := e.nodeAttrs.Retrieve(path, key, e.curBranch, e.curRev); err != nil {
		return value.Value{}, err
	} else if ok {
		return v, nil
	}

	l2Key := cache.L2Key(path, key, e.curBranch, e.curRev)
	if e.l2 != nil {
		if raw, ok, err := e.l2.Get(ctx, l2Key); err == nil && ok {
			if v, err := value.Decode(string(raw)); err == nil {
				_ = e.nodeAttrs.Store(path, key, e.curBranch, e.curRev, v)
				return v, nil
			}
		}
	}

	v, ok, deleted, err := e.valueAncestryFallback(e.curBranch, e.curRev, func(branchName string, rev int32) (value.Value, bool, error) {
		return e.persistence.NodeValGet(ctx, graph, node, key, branchName, rev)
	})
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		reason := "never-set"
		if deleted {
			reason = "deleted"
		}
		return value.Value{}, &store.KeyNotFoundError{Path: path, Key: key, Branch: e.curBranch, Rev: e.curRev, Reason: reason}
	}

	_ = e.nodeAttrs.Store(path, key, e.curBranch, e.curRev, v)
	if e.l2 != nil {
		if raw, err := value.Encode(v); err == nil {
			_ = e.l2.Set(ctx, l2Key, []byte(raw))
		}
	}
	return v, nil
}

// NodeAttrs enumerates every non-deleted attribute on node in graph
// effective at the cursor.
func (e *Engine) NodeAttrs(ctx context.Context, graph, node string) (map[string]value.Value, error) {
	if e.batcher.Pending("node_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make(map[string]value.Value)
	for _, p := range pairs {
		items, err := e.persistence.NodeValItems(ctx, graph, node, p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for k, v := range items {
			if seen[k] {
				continue
			}
			seen[k] = true
			if !v.IsTombstone() {
				out[k] = v
			}
		}
	}
	return out, nil
}

// --- edge attributes ---

// SetEdgeAttr stores v for key on edge (nodeA, nodeB, idx) in graph at the
// cursor.
func (e *Engine) SetEdgeAttr(ctx context.Context, graph, nodeA, nodeB string, idx int, key string, v value.Value) error {
	path := []string{graph, nodeA, nodeB, strconv.Itoa(idx)}
	if err := e.edgeAttrs.Store(path, key, e.curBranch, e.curRev, v); err != nil {
		return err
	}
	e.batcher.EnqueueEdgeVal(graph, nodeA, nodeB, int32(idx), key, e.curBranch, int32(e.curRev), v)
	if e.l2 != nil {
		_ = e.l2.Invalidate(ctx, cache.L2Key(path, key, e.curBranch, e.curRev))
	}
	return nil
}

// DelEdgeAttr tombstones key on the given edge at the cursor.
func (e *Engine) DelEdgeAttr(ctx context.Context, graph, nodeA, nodeB string, idx int, key string) error {
	return e.SetEdgeAttr(ctx, graph, nodeA, nodeB, idx, key, value.Tombstone)
}

// EdgeAttr reads key on the given edge effective at the cursor.
func (e *Engine) EdgeAttr(ctx context.Context, graph, nodeA, nodeB string, idx int, key string) (value.Value, error) {
	if e.batcher.Pending("edge_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return value.Value{}, err
		}
	}
	path := []string{graph, nodeA, nodeB, strconv.Itoa(idx)}

	if v, ok, err := e.edgeAttrs.Retrieve(path, key, e.curBranch, e.curRev); err != nil {
		return value.Value{}, err
	} else if ok {
		return v, nil
	}

	l2Key := cache.L2Key(path, key, e.curBranch, e.curRev)
	if e.l2 != nil {
		if raw, ok, err := e.l2.Get(ctx, l2Key); err == nil && ok {
			if v, err := value.Decode(string(raw)); err == nil {
				_ = e.edgeAttrs.Store(path, key, e.curBranch, e.curRev, v)
				return v, nil
			}
		}
	}

	v, ok, deleted, err := e.valueAncestryFallback(e.curBranch, e.curRev, func(branchName string, rev int32) (value.Value, bool, error) {
		return e.persistence.EdgeValGet(ctx, graph, nodeA, nodeB, int32(idx), key, branchName, rev)
	})
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		reason := "never-set"
		if deleted {
			reason = "deleted"
		}
		return value.Value{}, &store.KeyNotFoundError{Path: path, Key: key, Branch: e.curBranch, Rev: e.curRev, Reason: reason}
	}

	_ = e.edgeAttrs.Store(path, key, e.curBranch, e.curRev, v)
	if e.l2 != nil {
		if raw, err := value.Encode(v); err == nil {
			_ = e.l2.Set(ctx, l2Key, []byte(raw))
		}
	}
	return v, nil
}

// EdgeAttrs enumerates every non-deleted attribute on the given edge
// effective at the cursor.
func (e *Engine) EdgeAttrs(ctx context.Context, graph, nodeA, nodeB string, idx int) (map[string]value.Value, error) {
	if e.batcher.Pending("edge_val") {
		if err := e.batcher.Flush(ctx); err != nil {
			return nil, err
		}
	}
	pairs, err := e.branches.Ancestry(e.curBranch, e.curRev)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make(map[string]value.Value)
	for _, p := range pairs {
		items, err := e.persistence.EdgeValItems(ctx, graph, nodeA, nodeB, int32(idx), p.Branch, int32(p.Rev))
		if err != nil {
			return nil, err
		}
		for k, v := range items {
			if seen[k] {
				continue
			}
			seen[k] = true
			if !v.IsTombstone() {
				out[k] = v
			}
		}
	}
	return out, nil
}

