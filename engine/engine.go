// Package engine implements Engine (§4.6): the single orchestrator that
// owns the branch cursor, the in-process caches, the WriteBatcher, and the
// one open Persistence transaction, and exposes the public operations the
// façade and other callers consume.
package engine

import (
	"context"
	"fmt"

	"github.com/evalgo/graphstore/branch"
	"github.com/evalgo/graphstore/cache"
	"github.com/evalgo/graphstore/common"
	"github.com/evalgo/graphstore/config"
	"github.com/evalgo/graphstore/store"
	"github.com/evalgo/graphstore/store/batch"
	"github.com/evalgo/graphstore/value"
)

// ValueError reports an invalid cursor transition (§4.6: "Branch creation
// at a rev beyond the parent's extent raises ValueError").
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string { return "engine: " + e.Msg }

// Engine is the single-threaded, synchronous orchestrator described in §5:
// one Engine owns one Persistence transaction, one set of caches, and the
// branch cursor; there is no locking discipline because there is no
// concurrency.
type Engine struct {
	opts config.Options
	log  *common.ContextLogger

	persistence *store.Persistence
	batcher     *batch.Batcher
	branches    *branch.Index

	graphAttrs *cache.EntityCache[value.Value]
	nodeAttrs  *cache.EntityCache[value.Value]
	edgeAttrs  *cache.EntityCache[value.Value]
	nodes      *cache.NodesCache
	edges      *cache.EdgesCache

	l2 *cache.L2Cache

	curBranch string
	curRev    int
}

// Open acquires the persistence connection, builds the cache layer, and
// positions the cursor at (master, 0) (§5 Resource acquisition).
func Open(ctx context.Context, opts config.Options) (*Engine, error) {
	p, err := store.Open(ctx, opts.PostgresDSN)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:        opts,
		log:         common.EngineLogger(branch.Root, 0),
		persistence: p,
		batcher:     batch.NewBatcher(p),
		branches:    branch.NewIndex(),
		curBranch:   branch.Root,
		curRev:      0,
	}
	e.graphAttrs = cache.NewAttrCache(e.branches)
	e.nodeAttrs = cache.NewAttrCache(e.branches)
	e.edgeAttrs = cache.NewAttrCache(e.branches)
	e.nodes = cache.NewNodesCache(e.branches)
	e.edges = cache.NewEdgesCache(e.branches)

	if opts.RedisURL != "" {
		l2, err := cache.NewL2Cache(ctx, cache.L2Config{Addr: opts.RedisURL})
		if err != nil {
			e.log.WithError(err).Warn("l2 cache unavailable, continuing without it")
		} else {
			e.l2 = l2
		}
	}

	if err := e.loadBranches(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// InitSchema migrates the eight-table schema and seeds the two reserved
// global keys (§6.1, §6.3).
func (e *Engine) InitSchema(ctx context.Context) error {
	db, err := store.OpenSchemaDB(e.opts.PostgresDSN)
	if err != nil {
		return err
	}
	return store.InitSchema(ctx, db)
}

// loadBranches replays the persisted `branches` table into the in-process
// BranchIndex on open, so ancestry walks don't need to hit persistence.
func (e *Engine) loadBranches(ctx context.Context) error {
	rows, err := e.persistence.AllBranch(ctx)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Branch == branch.Root {
			continue
		}
		if !e.branches.Exists(r.Branch) {
			if err := e.branches.Create(r.Branch, r.Parent, int(r.ParentRev)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush drains every pending WriteBatcher buffer so subsequent reads see
// them, without committing the underlying transaction — the distinction
// alchemy.py's staged-write model draws between a read-visible flush and
// a durable commit (§4.5, §4.6).
func (e *Engine) Flush(ctx context.Context) error {
	return e.batcher.Flush(ctx)
}

// Commit flushes every pending buffer and commits the open transaction,
// then begins a fresh one so the Engine stays usable (§4.6 Lifecycle).
func (e *Engine) Commit(ctx context.Context) error {
	if err := e.batcher.Flush(ctx); err != nil {
		return err
	}
	return e.persistence.Commit(ctx)
}

// Close flushes all buffers, commits, and releases the connection on
// every exit path (§5 Resource acquisition).
func (e *Engine) Close(ctx context.Context) error {
	flushErr := e.batcher.Flush(ctx)
	if e.l2 != nil {
		e.l2.Close()
	}
	closeErr := e.persistence.Close(ctx)
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Branch returns the cursor's current branch.
func (e *Engine) Branch() string { return e.curBranch }

// Rev returns the cursor's current revision.
func (e *Engine) Rev() int { return e.curRev }

// SetRev moves the cursor's revision within the current branch. r must be
// at or after the branch's parent_rev (§4.6 State machine).
func (e *Engine) SetRev(r int) error {
	_, parentRev, err := e.branches.ParentOf(e.curBranch)
	if err != nil {
		return err
	}
	if e.curBranch != branch.Root && r < parentRev {
		return &ValueError{Msg: fmt.Sprintf("revision %d precedes branch %q's parent revision %d", r, e.curBranch, parentRev)}
	}
	e.curRev = r
	return nil
}

// SetBranch moves the cursor to name, creating it as a child of the
// current branch at the current revision if it doesn't already exist
// (§4.6 State machine's implicit branch creation rule).
func (e *Engine) SetBranch(ctx context.Context, name string) error {
	if !e.branches.Exists(name) {
		if err := e.branches.Create(name, e.curBranch, e.curRev); err != nil {
			return err
		}
		if err := e.persistence.NewBranch(ctx, name, e.curBranch, int32(e.curRev)); err != nil {
			return err
		}
		e.curBranch = name
		return nil
	}

	_, parentRev, err := e.branches.ParentOf(name)
	if err != nil {
		return err
	}
	if e.curRev < parentRev {
		return &ValueError{Msg: fmt.Sprintf("cannot switch to branch %q at revision %d, below its parent revision %d", name, e.curRev, parentRev)}
	}
	e.curBranch = name
	return nil
}

// ActiveBranches is the ancestry walk consumed by façade callers.
func (e *Engine) ActiveBranches() ([]branch.Pair, error) {
	return e.branches.Ancestry(e.curBranch, e.curRev)
}

// IsParentOf reports whether a is a transitive ancestor branch of b.
func (e *Engine) IsParentOf(a, b string) (bool, error) {
	return e.branches.IsParentOf(a, b)
}
