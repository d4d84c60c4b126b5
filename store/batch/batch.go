// Package batch implements WriteBatcher (§4.5): per-table buffers of
// pending writes that must be flushed — as one batched executemany, not
// row by row — before any read against the same table and before commit.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evalgo/graphstore/common"
	"github.com/evalgo/graphstore/store"
	"github.com/evalgo/graphstore/value"
)

type graphValRow struct {
	graph, key, branch string
	rev                int32
	value              value.Value
}

type nodeRow struct {
	graph, node, branch string
	rev                 int32
	extant              bool
}

type nodeValRow struct {
	graph, node, key, branch string
	rev                      int32
	value                    value.Value
}

type edgeRow struct {
	graph, nodeA, nodeB, branch string
	idx, rev                    int32
	extant                      bool
}

type edgeValRow struct {
	graph, nodeA, nodeB, key, branch string
	idx, rev                        int32
	value                           value.Value
}

// Batcher buffers pending writes for {graph_val, nodes, node_val, edges,
// edge_val} in insertion order and flushes them as pgx batches. Flush
// order across tables is arbitrary (§4.5: the schema's foreign keys only
// reference the eagerly-written graphs/branches headers), so Flush just
// walks its five buffers in a fixed, convenient order.
type Batcher struct {
	p *store.Persistence

	graphVal []graphValRow
	nodes    []nodeRow
	nodeVal  []nodeValRow
	edges    []edgeRow
	edgeVal  []edgeValRow
}

// NewBatcher builds an empty batcher writing through p.
func NewBatcher(p *store.Persistence) *Batcher {
	return &Batcher{p: p}
}

// EnqueueGraphVal buffers a graph_val write.
func (b *Batcher) EnqueueGraphVal(graph, key, branch string, rev int32, v value.Value) {
	b.graphVal = append(b.graphVal, graphValRow{graph, key, branch, rev, v})
}

// EnqueueNode buffers a nodes (existence) write.
func (b *Batcher) EnqueueNode(graph, node, branch string, rev int32, extant bool) {
	b.nodes = append(b.nodes, nodeRow{graph, node, branch, rev, extant})
}

// EnqueueNodeVal buffers a node_val write.
func (b *Batcher) EnqueueNodeVal(graph, node, key, branch string, rev int32, v value.Value) {
	b.nodeVal = append(b.nodeVal, nodeValRow{graph, node, key, branch, rev, v})
}

// EnqueueEdge buffers an edges (existence) write.
func (b *Batcher) EnqueueEdge(graph, nodeA, nodeB string, idx int32, branch string, rev int32, extant bool) {
	b.edges = append(b.edges, edgeRow{graph, nodeA, nodeB, branch, idx, rev, extant})
}

// EnqueueEdgeVal buffers an edge_val write.
func (b *Batcher) EnqueueEdgeVal(graph, nodeA, nodeB string, idx int32, key, branch string, rev int32, v value.Value) {
	b.edgeVal = append(b.edgeVal, edgeValRow{graph, nodeA, nodeB, key, branch, idx, rev, v})
}

// Pending reports whether any buffer for table still holds unflushed rows;
// the Engine calls this at the top of every read method against that
// table to decide whether a flush is required first (§4.5).
func (b *Batcher) Pending(table string) bool {
	switch table {
	case "graph_val":
		return len(b.graphVal) > 0
	case "nodes":
		return len(b.nodes) > 0
	case "node_val":
		return len(b.nodeVal) > 0
	case "edges":
		return len(b.edges) > 0
	case "edge_val":
		return len(b.edgeVal) > 0
	default:
		return false
	}
}

// Flush executemany's every buffered table in one pgx batch per table and
// clears the buffers, logging a start/done pair tagged with a correlation
// id the way the teacher's ContextLogger pattern is used elsewhere.
func (b *Batcher) Flush(ctx context.Context) error {
	id := uuid.NewString()
	log := common.NewContextLogger(nil, map[string]interface{}{"flush_id": id})
	log.Debug("flush started")

	if err := b.flushGraphVal(ctx); err != nil {
		return err
	}
	if err := b.flushNodes(ctx); err != nil {
		return err
	}
	if err := b.flushNodeVal(ctx); err != nil {
		return err
	}
	if err := b.flushEdges(ctx); err != nil {
		return err
	}
	if err := b.flushEdgeVal(ctx); err != nil {
		return err
	}

	log.Debug("flush done")
	return nil
}

func (b *Batcher) flushGraphVal(ctx context.Context) error {
	if len(b.graphVal) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.graphVal {
		raw, err := store.EncodeOrNull(r.value)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO graph_val (graph, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (graph, key, branch, rev) DO UPDATE SET value = EXCLUDED.value`,
			r.graph, r.key, r.branch, r.rev, raw)
	}
	if err := sendAndDrain(ctx, b.p, batch, len(b.graphVal)); err != nil {
		return fmt.Errorf("batch: flush graph_val: %w", err)
	}
	b.graphVal = nil
	return nil
}

func (b *Batcher) flushNodes(ctx context.Context) error {
	if len(b.nodes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.nodes {
		batch.Queue(`
			INSERT INTO nodes (graph, node, branch, rev, extant) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (graph, node, branch, rev) DO UPDATE SET extant = EXCLUDED.extant`,
			r.graph, r.node, r.branch, r.rev, r.extant)
	}
	if err := sendAndDrain(ctx, b.p, batch, len(b.nodes)); err != nil {
		return fmt.Errorf("batch: flush nodes: %w", err)
	}
	b.nodes = nil
	return nil
}

func (b *Batcher) flushNodeVal(ctx context.Context) error {
	if len(b.nodeVal) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.nodeVal {
		raw, err := store.EncodeOrNull(r.value)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO node_val (graph, node, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (graph, node, key, branch, rev) DO UPDATE SET value = EXCLUDED.value`,
			r.graph, r.node, r.key, r.branch, r.rev, raw)
	}
	if err := sendAndDrain(ctx, b.p, batch, len(b.nodeVal)); err != nil {
		return fmt.Errorf("batch: flush node_val: %w", err)
	}
	b.nodeVal = nil
	return nil
}

func (b *Batcher) flushEdges(ctx context.Context) error {
	if len(b.edges) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.edges {
		batch.Queue(`
			INSERT INTO edges (graph, nodea, nodeb, idx, branch, rev, extant) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (graph, nodea, nodeb, idx, branch, rev) DO UPDATE SET extant = EXCLUDED.extant`,
			r.graph, r.nodeA, r.nodeB, r.idx, r.branch, r.rev, r.extant)
	}
	if err := sendAndDrain(ctx, b.p, batch, len(b.edges)); err != nil {
		return fmt.Errorf("batch: flush edges: %w", err)
	}
	b.edges = nil
	return nil
}

func (b *Batcher) flushEdgeVal(ctx context.Context) error {
	if len(b.edgeVal) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range b.edgeVal {
		raw, err := store.EncodeOrNull(r.value)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO edge_val (graph, nodea, nodeb, idx, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (graph, nodea, nodeb, idx, key, branch, rev) DO UPDATE SET value = EXCLUDED.value`,
			r.graph, r.nodeA, r.nodeB, r.idx, r.key, r.branch, r.rev, raw)
	}
	if err := sendAndDrain(ctx, b.p, batch, len(b.edgeVal)); err != nil {
		return fmt.Errorf("batch: flush edge_val: %w", err)
	}
	b.edgeVal = nil
	return nil
}

func sendAndDrain(ctx context.Context, p *store.Persistence, batch *pgx.Batch, n int) error {
	results := p.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
