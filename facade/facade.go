// Package facade implements GraphFacade (§6.4): the adjacency-dictionary
// API consumed by external collaborators — graph[name], graph.node[n],
// graph.adj[u][v], graph.pred[v][u] — as thin, non-owning views over an
// Engine at its current cursor. This layer is specified only at the
// interface level (§6.4), so unlike engine/ and store/ it carries no
// third-party dependency: every concern here is either a method
// forwarded straight to engine.Engine or a plain Go map/slice view, and
// nothing in the standard library's domain (text encoding, SQL, caching)
// is being reimplemented by hand — there's simply no concern left for a
// library to serve once Engine does the real work.
package facade

import (
	"context"

	"github.com/evalgo/graphstore/engine"
	"github.com/evalgo/graphstore/store"
	"github.com/evalgo/graphstore/value"
)

// Store is the root handle external callers open: graph[name] (§6.4).
type Store struct {
	eng *engine.Engine
}

// New wraps eng in the façade's adjacency-dictionary API.
func New(eng *engine.Engine) *Store { return &Store{eng: eng} }

// Branch returns the façade's current branch cursor.
func (s *Store) Branch() string { return s.eng.Branch() }

// Rev returns the façade's current revision cursor.
func (s *Store) Rev() int { return s.eng.Rev() }

// SetBranch moves the cursor, implicitly creating branch if it doesn't
// already exist (§4.6).
func (s *Store) SetBranch(ctx context.Context, branch string) error {
	return s.eng.SetBranch(ctx, branch)
}

// SetRev moves the revision cursor within the current branch.
func (s *Store) SetRev(rev int) error { return s.eng.SetRev(rev) }

// NewGraph registers a graph of the given kind ("Graph", "DiGraph",
// "MultiGraph", "MultiDiGraph") and returns a view onto it.
func (s *Store) NewGraph(ctx context.Context, name, kind string) (*Graph, error) {
	if err := s.eng.NewGraph(ctx, name, kind); err != nil {
		return nil, err
	}
	return s.Graph(name), nil
}

// Graph returns a view onto an existing graph; writes through it ensure
// the graph itself exists only if NewGraph already registered it (§6.4:
// writes create the enclosing path, but a graph is the outermost level
// and must be created explicitly).
func (s *Store) Graph(name string) *Graph {
	return &Graph{eng: s.eng, name: name}
}

// DelGraph removes name and everything beneath it.
func (s *Store) DelGraph(ctx context.Context, name string) error {
	return s.eng.DelGraph(ctx, name)
}

// Graphs lists every registered graph name.
func (s *Store) Graphs(ctx context.Context) ([]string, error) {
	return s.eng.ListGraphs(ctx)
}

// Commit flushes every buffer and commits the underlying transaction.
func (s *Store) Commit(ctx context.Context) error { return s.eng.Commit(ctx) }

// Close flushes, commits, and releases the Engine's resources.
func (s *Store) Close(ctx context.Context) error { return s.eng.Close(ctx) }

// Graph is a view over one graph's attributes and topology at the
// Engine's current cursor (§6.4: "graph[name]").
type Graph struct {
	eng  *engine.Engine
	name string
}

// Name returns the graph's registered name.
func (g *Graph) Name() string { return g.name }

// Attr is the graph-level attribute mapping view (§6.4: "graph.graph").
func (g *Graph) Attr(ctx context.Context, key string) (value.Value, error) {
	return g.eng.GraphAttr(ctx, g.name, key)
}

// SetAttr sets a graph-level attribute.
func (g *Graph) SetAttr(ctx context.Context, key string, v value.Value) error {
	return g.eng.SetGraphAttr(ctx, g.name, key, v)
}

// DelAttr deletes a graph-level attribute.
func (g *Graph) DelAttr(ctx context.Context, key string) error {
	return g.eng.DelGraphAttr(ctx, g.name, key)
}

// Attrs enumerates every non-deleted graph-level attribute.
func (g *Graph) Attrs(ctx context.Context) (map[string]value.Value, error) {
	return g.eng.GraphAttrs(ctx, g.name)
}

// Node returns a view over one node, §6.4's "graph.node[name]" level.
// Reads through the view before the node has been created with AddNode
// raise KeyNotFound; AddNode (or setting an attribute, which implicitly
// ensures the node exists) brings it into existence.
func (g *Graph) Node(name string) *NodeView {
	return &NodeView{eng: g.eng, graph: g.name, node: name}
}

// AddNode records node as extant in the graph.
func (g *Graph) AddNode(ctx context.Context, node string) error {
	return g.eng.SetNodeExists(ctx, g.name, node, true)
}

// RemoveNode tombstones node's existence (its attribute history remains
// queryable at earlier revisions; P4).
func (g *Graph) RemoveNode(ctx context.Context, node string) error {
	return g.eng.SetNodeExists(ctx, g.name, node, false)
}

// HasNode reports whether node is extant at the cursor.
func (g *Graph) HasNode(ctx context.Context, node string) (bool, error) {
	return g.eng.NodeExists(ctx, g.name, node)
}

// Nodes lists every node extant in the graph at the cursor.
func (g *Graph) Nodes(ctx context.Context) ([]string, error) {
	return g.eng.Nodes(ctx, g.name)
}

// AddEdge records edge (a, b) — or its idx'th parallel copy in a multi
// graph — as extant, implicitly bringing a and b into existence first
// (§6.4: "writes silently create the enclosing path if missing").
func (g *Graph) AddEdge(ctx context.Context, a, b string, idx int) error {
	if err := g.eng.SetNodeExists(ctx, g.name, a, true); err != nil {
		return err
	}
	if err := g.eng.SetNodeExists(ctx, g.name, b, true); err != nil {
		return err
	}
	return g.eng.SetEdgeExists(ctx, g.name, a, b, idx, true)
}

// RemoveEdge tombstones edge (a, b)'s idx'th copy.
func (g *Graph) RemoveEdge(ctx context.Context, a, b string, idx int) error {
	return g.eng.SetEdgeExists(ctx, g.name, a, b, idx, false)
}

// HasEdge reports whether edge (a, b)'s idx'th copy is extant.
func (g *Graph) HasEdge(ctx context.Context, a, b string, idx int) (bool, error) {
	return g.eng.EdgeExists(ctx, g.name, a, b, idx)
}

// Adj is the successor adjacency view, §6.4's "graph.adj[u][v]".
func (g *Graph) Adj(u string) *AdjacencyView {
	return &AdjacencyView{eng: g.eng, graph: g.name, from: u, forward: true}
}

// Pred is the predecessor adjacency view, §6.4's "graph.pred[v][u]"
// (directed graphs only — meaningful on undirected ones too, since P7
// makes (a,b) and (b,a) coincide there).
func (g *Graph) Pred(v string) *AdjacencyView {
	return &AdjacencyView{eng: g.eng, graph: g.name, from: v, forward: false}
}

// Edge returns a view over edge (a, b)'s idx'th copy's attributes,
// §6.4's "graph.adj[u][v][k]" for multi graphs (k == idx).
func (g *Graph) Edge(a, b string, idx int) *EdgeView {
	return &EdgeView{eng: g.eng, graph: g.name, a: a, b: b, idx: idx}
}

// MultiEdges returns the indexes of every parallel edge from a to b.
func (g *Graph) MultiEdges(ctx context.Context, a, b string) ([]int, error) {
	return g.eng.MultiEdges(ctx, g.name, a, b)
}

// NodeView is a mapping view over one node's attributes (§6.4).
type NodeView struct {
	eng   *engine.Engine
	graph string
	node  string
}

// Name returns the node's identifier.
func (n *NodeView) Name() string { return n.node }

// Attr reads key, raising KeyNotFound (via the engine/store error type)
// if the node or the key itself is absent at the cursor.
func (n *NodeView) Attr(ctx context.Context, key string) (value.Value, error) {
	exists, err := n.eng.NodeExists(ctx, n.graph, n.node)
	if err != nil {
		return value.Value{}, err
	}
	if !exists {
		return value.Value{}, &store.KeyNotFoundError{Path: []string{n.graph, n.node}, Key: key, Branch: n.eng.Branch(), Rev: n.eng.Rev(), Reason: "node absent"}
	}
	return n.eng.NodeAttr(ctx, n.graph, n.node, key)
}

// SetAttr sets key on the node, implicitly creating the node first if it
// doesn't already exist (§6.4).
func (n *NodeView) SetAttr(ctx context.Context, key string, v value.Value) error {
	if err := n.eng.SetNodeExists(ctx, n.graph, n.node, true); err != nil {
		return err
	}
	return n.eng.SetNodeAttr(ctx, n.graph, n.node, key, v)
}

// DelAttr tombstones key on the node.
func (n *NodeView) DelAttr(ctx context.Context, key string) error {
	return n.eng.DelNodeAttr(ctx, n.graph, n.node, key)
}

// Attrs enumerates every non-deleted attribute on the node.
func (n *NodeView) Attrs(ctx context.Context) (map[string]value.Value, error) {
	return n.eng.NodeAttrs(ctx, n.graph, n.node)
}

// AdjacencyView is §6.4's "graph.adj[u]" / "graph.pred[v]" level: a
// mapping from neighbor name to that edge's attribute view.
type AdjacencyView struct {
	eng     *engine.Engine
	graph   string
	from    string
	forward bool
}

// Neighbors lists the distinct nodes reachable in this view's direction.
func (a *AdjacencyView) Neighbors(ctx context.Context) ([]string, error) {
	if a.forward {
		return a.eng.Successors(ctx, a.graph, a.from)
	}
	return a.eng.Predecessors(ctx, a.graph, a.from)
}

// Edge returns the attribute view for the idx'th copy of the edge
// between this view's anchor node and other, in this view's direction.
func (a *AdjacencyView) Edge(other string, idx int) *EdgeView {
	if a.forward {
		return &EdgeView{eng: a.eng, graph: a.graph, a: a.from, b: other, idx: idx}
	}
	return &EdgeView{eng: a.eng, graph: a.graph, a: other, b: a.from, idx: idx}
}

// Has reports whether an edge to/from other exists in this view's
// direction.
func (a *AdjacencyView) Has(ctx context.Context, other string, idx int) (bool, error) {
	if a.forward {
		return a.eng.EdgeExists(ctx, a.graph, a.from, other, idx)
	}
	return a.eng.EdgeExists(ctx, a.graph, other, a.from, idx)
}

// EdgeView is a mapping view over one edge's attributes, §6.4's
// "graph.adj[u][v]" (or "[...][k]" for a specific parallel copy).
type EdgeView struct {
	eng   *engine.Engine
	graph string
	a, b  string
	idx   int
}

// Attr reads key on this edge.
func (e *EdgeView) Attr(ctx context.Context, key string) (value.Value, error) {
	return e.eng.EdgeAttr(ctx, e.graph, e.a, e.b, e.idx, key)
}

// SetAttr sets key on this edge, implicitly creating both endpoints and
// the edge itself if missing (§6.4).
func (e *EdgeView) SetAttr(ctx context.Context, key string, v value.Value) error {
	if err := e.eng.SetNodeExists(ctx, e.graph, e.a, true); err != nil {
		return err
	}
	if err := e.eng.SetNodeExists(ctx, e.graph, e.b, true); err != nil {
		return err
	}
	if err := e.eng.SetEdgeExists(ctx, e.graph, e.a, e.b, e.idx, true); err != nil {
		return err
	}
	return e.eng.SetEdgeAttr(ctx, e.graph, e.a, e.b, e.idx, key, v)
}

// DelAttr tombstones key on this edge.
func (e *EdgeView) DelAttr(ctx context.Context, key string) error {
	return e.eng.DelEdgeAttr(ctx, e.graph, e.a, e.b, e.idx, key)
}

// Attrs enumerates every non-deleted attribute on this edge.
func (e *EdgeView) Attrs(ctx context.Context) (map[string]value.Value, error) {
	return e.eng.EdgeAttrs(ctx, e.graph, e.a, e.b, e.idx)
}
