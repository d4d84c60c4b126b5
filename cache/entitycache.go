package cache

import (
	"fmt"

	"github.com/evalgo/graphstore/branch"
	"github.com/evalgo/graphstore/history"
)

// Stats counts cache hit/miss/backfill events for observability — an
// addition beyond the distilled spec (see SPEC_FULL.md's "Supplemented
// features"), exposed as fields and Stats accessors (nothing logs them)
// rather than required by any invariant.
type Stats struct {
	Hits      int64
	Misses    int64
	Backfills int64
}

// Ancestor is the interface EntityCache needs from BranchIndex: just
// enough to walk the active-branch chain, so cache tests can fake it
// without standing up a real branch.Index.
type Ancestor interface {
	Ancestry(branchName string, rev int) ([]branch.Pair, error)
}

// EntityCache implements §4.3 for one category of data (graph attrs, node
// attrs, edge attrs, node existence, edge existence — the concrete
// category is chosen by the newHistory factory passed to newEntityCache).
type EntityCache[V any] struct {
	branches Ancestor

	newHistory  func() versionedHistory[V]
	isTombstone func(V) bool

	historyIndex *PathMap[versionedHistory[V]]
	extantIndex  *PathMap[*history.Window[map[string]struct{}]]

	Stats Stats
}

// NewValueCache builds an EntityCache over plain attribute values (graph,
// node, and edge attribute tables all use this shape).
func NewValueCache[V any](branches Ancestor, isTombstone func(V) bool) *EntityCache[V] {
	return newEntityCache(branches, newPlainWindow[V], isTombstone)
}

// NewExistenceCache builds an EntityCache over existence flags, backed by
// FuturistWindow so retroactive existence edits are rejected (§4.1).
func NewExistenceCache[V any](branches Ancestor, isTombstone func(V) bool) *EntityCache[V] {
	return newEntityCache(branches, newFuturistWindow[V], isTombstone)
}

func newEntityCache[V any](branches Ancestor, newHistory func() versionedHistory[V], isTombstone func(V) bool) *EntityCache[V] {
	return &EntityCache[V]{
		branches:     branches,
		newHistory:   newHistory,
		isTombstone:  isTombstone,
		historyIndex: NewPathMap[versionedHistory[V]](),
		extantIndex:  NewPathMap[*history.Window[map[string]struct{}]](),
	}
}

// Store writes value at (path, attrKey, branchName, rev) and incrementally
// maintains the extant-keys index for that path/branch.
func (c *EntityCache[V]) Store(path []string, attrKey, branchName string, rev int, val V) error {
	hkey := joinPath(path, attrKey, branchName)
	slot := c.historyIndex.GetOrCreate(hkey)
	if *slot == nil {
		*slot = c.newHistory()
	}
	if err := (*slot).Set(rev, val); err != nil {
		return fmt.Errorf("cache: store: %w", err)
	}

	set, err := c.effectiveExtantSet(path, branchName, rev)
	if err != nil {
		return err
	}
	if c.isTombstone(val) {
		delete(set, attrKey)
	} else {
		set[attrKey] = struct{}{}
	}

	ekey := joinPath(path, branchName)
	eslot := c.extantIndex.GetOrCreate(ekey)
	if *eslot == nil {
		*eslot = history.NewWindow[map[string]struct{}]()
	}
	(*eslot).Set(rev, set)
	return nil
}

// Retrieve consults history[path][attrKey][branchName] and, on a miss,
// walks the ancestry BranchIndex supplies, back-filling the first
// non-absent answer into (branchName, rev) so subsequent lookups are O(1).
func (c *EntityCache[V]) Retrieve(path []string, attrKey, branchName string, rev int) (val V, ok bool, err error) {
	hkey := joinPath(path, attrKey, branchName)
	if slot, found := c.historyIndex.Get(hkey); found && *slot != nil {
		if v, present := (*slot).GetEffective(rev); present {
			c.Stats.Hits++
			if c.isTombstone(v) {
				return val, false, nil
			}
			return v, true, nil
		}
	}

	pairs, err := c.branches.Ancestry(branchName, rev)
	if err != nil {
		return val, false, err
	}
	for _, p := range pairs {
		if p.Branch == branchName && p.Rev == rev {
			continue // already checked above
		}
		akey := joinPath(path, attrKey, p.Branch)
		slot, found := c.historyIndex.Get(akey)
		if !found || *slot == nil {
			continue
		}
		v, present := (*slot).GetEffective(p.Rev)
		if !present {
			continue
		}
		c.Stats.Backfills++
		if c.isTombstone(v) {
			return val, false, nil
		}
		// Back-fill into (branchName, rev).
		bslot := c.historyIndex.GetOrCreate(hkey)
		if *bslot == nil {
			*bslot = c.newHistory()
		}
		_ = (*bslot).Set(rev, v)
		return v, true, nil
	}

	c.Stats.Misses++
	return val, false, nil
}

// Contains is equivalent to attrKey belonging to the extant set at
// (path, branchName, rev).
func (c *EntityCache[V]) Contains(path []string, attrKey, branchName string, rev int) (bool, error) {
	set, err := c.IterKeysSet(path, branchName, rev)
	if err != nil {
		return false, err
	}
	_, ok := set[attrKey]
	return ok, nil
}

// IterKeys returns the keys extant at (path, branchName, rev).
func (c *EntityCache[V]) IterKeys(path []string, branchName string, rev int) ([]string, error) {
	set, err := c.IterKeysSet(path, branchName, rev)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out, nil
}

// CountKeys returns the number of keys extant at (path, branchName, rev).
func (c *EntityCache[V]) CountKeys(path []string, branchName string, rev int) (int, error) {
	set, err := c.IterKeysSet(path, branchName, rev)
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

// IterKeysSet reads (and forward-propagates if necessary) the extant set
// at (path, branchName, rev), returning the live map. Callers must treat
// the result as read-only; Store always installs a fresh copy.
func (c *EntityCache[V]) IterKeysSet(path []string, branchName string, rev int) (map[string]struct{}, error) {
	ekey := joinPath(path, branchName)
	if slot, found := c.extantIndex.Get(ekey); found && *slot != nil {
		if v, present := (*slot).GetEffective(rev); present {
			return v, nil
		}
	}
	set, err := c.effectiveExtantSetFromAncestors(path, branchName, rev)
	if err != nil {
		return nil, err
	}
	eslot := c.extantIndex.GetOrCreate(ekey)
	if *eslot == nil {
		*eslot = history.NewWindow[map[string]struct{}]()
	}
	(*eslot).Set(rev, set)
	return set, nil
}

// effectiveExtantSet returns a fresh copy of the extant set effective at
// (path, branchName, rev), checking the branch's own window first, then
// falling back to ancestors. Used by Store before mutating incrementally.
func (c *EntityCache[V]) effectiveExtantSet(path []string, branchName string, rev int) (map[string]struct{}, error) {
	ekey := joinPath(path, branchName)
	if slot, found := c.extantIndex.Get(ekey); found && *slot != nil {
		if v, present := (*slot).GetEffective(rev); present {
			return copySet(v), nil
		}
	}
	return c.effectiveExtantSetFromAncestors(path, branchName, rev)
}

// effectiveExtantSetFromAncestors walks only the ancestor chain (not the
// branch's own window) looking for the nearest installed extant set.
func (c *EntityCache[V]) effectiveExtantSetFromAncestors(path []string, branchName string, rev int) (map[string]struct{}, error) {
	pairs, err := c.branches.Ancestry(branchName, rev)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if p.Branch == branchName && p.Rev == rev {
			continue
		}
		ekey := joinPath(path, p.Branch)
		slot, found := c.extantIndex.Get(ekey)
		if !found || *slot == nil {
			continue
		}
		if v, present := (*slot).GetEffective(p.Rev); present {
			return copySet(v), nil
		}
	}
	return map[string]struct{}{}, nil
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
