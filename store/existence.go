package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// --- nodes ---

// NodeExistRow is one decided (node, extant) pair: extant reflects the
// node's effective extant flag at the (branch, rev) the row was read for.
type NodeExistRow struct {
	Node   string
	Extant bool
}

// NodesExtant is the `nodes_extant` hi-rev-≤r read: every node that has a
// decided effective row at or before rev on branch, whether extant or
// removed — so an ancestry-merge caller can tell "decided removed here"
// from "never decided here" and stop propagating a shadowed node from an
// ancestor branch (I4, I6, P4).
func (p *Persistence) NodesExtant(ctx context.Context, graph, branchName string, rev int32) ([]NodeExistRow, error) {
	const q = `
		SELECT t.node, t.extant FROM nodes t
		JOIN (
			SELECT graph, node, branch, MAX(rev) AS rev FROM nodes
			WHERE graph = $1 AND branch = $2 AND rev <= $3
			GROUP BY graph, node, branch
		) hi ON t.graph = hi.graph AND t.node = hi.node AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1`
	rows, err := p.tx.Query(ctx, q, graph, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "nodes_extant", Cause: err}
	}
	defer rows.Close()

	var out []NodeExistRow
	for rows.Next() {
		var r NodeExistRow
		if err := rows.Scan(&r.Node, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: "nodes_extant scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NodeExists is the `node_exists` hi-rev-≤r point read. found reports
// whether a row exists at (branch, rev) at all — including an explicit
// extant=false row — distinct from no row existing (I4, I6): found=true
// must stop an ancestry walk either way, since extant=false is itself the
// decided answer "removed here", not an invitation to keep walking.
func (p *Persistence) NodeExists(ctx context.Context, graph, node, branchName string, rev int32) (extant, found bool, err error) {
	const q = `
		SELECT t.extant FROM nodes t
		JOIN (
			SELECT graph, node, branch, MAX(rev) AS rev FROM nodes
			WHERE graph = $1 AND node = $2 AND branch = $3 AND rev <= $4
			GROUP BY graph, node, branch
		) hi ON t.graph = hi.graph AND t.node = hi.node AND t.branch = hi.branch AND t.rev = hi.rev`
	err = p.tx.QueryRow(ctx, q, graph, node, branchName, rev).Scan(&extant)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, &PersistenceError{Op: "node_exists", Cause: err}
	}
	return extant, true, nil
}

// NodeIns is the `exist_node_ins` insert.
func (p *Persistence) NodeIns(ctx context.Context, graph, node, branchName string, rev int32, extant bool) error {
	_, err := p.exec(ctx, "exist_node_ins",
		`INSERT INTO nodes (graph, node, branch, rev, extant) VALUES ($1, $2, $3, $4, $5)`,
		graph, node, branchName, rev, extant)
	return err
}

// NodeUpd is the `exist_node_upd` update.
func (p *Persistence) NodeUpd(ctx context.Context, graph, node, branchName string, rev int32, extant bool) error {
	_, err := p.exec(ctx, "exist_node_upd",
		`UPDATE nodes SET extant = $1 WHERE graph = $2 AND node = $3 AND branch = $4 AND rev = $5`,
		extant, graph, node, branchName, rev)
	return err
}

// NodeSet inserts, falling back to update (§4.4 Integrity).
func (p *Persistence) NodeSet(ctx context.Context, graph, node, branchName string, rev int32, extant bool) error {
	if err := p.NodeIns(ctx, graph, node, branchName, rev, extant); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.NodeUpd(ctx, graph, node, branchName, rev, extant)
		}
		return err
	}
	return nil
}

// --- edges ---

// EdgeRow is one (nodeA, nodeB, idx) triple and its decided extant flag.
type EdgeRow struct {
	NodeA  string
	NodeB  string
	Idx    int32
	Extant bool
}

// EdgesExtant is the `edges_extant` hi-rev-≤r read of every (nodeA, nodeB,
// idx) triple with a decided effective row in graph at (branch, rev),
// extant or not (I4, I6, P4; see NodesExtant).
func (p *Persistence) EdgesExtant(ctx context.Context, graph, branchName string, rev int32) ([]EdgeRow, error) {
	const q = `
		SELECT t.nodea, t.nodeb, t.idx, t.extant FROM edges t
		JOIN (
			SELECT graph, nodea, nodeb, idx, branch, MAX(rev) AS rev FROM edges
			WHERE graph = $1 AND branch = $2 AND rev <= $3
			GROUP BY graph, nodea, nodeb, idx, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1`
	rows, err := p.tx.Query(ctx, q, graph, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "edges_extant", Cause: err}
	}
	defer rows.Close()

	var out []EdgeRow
	for rows.Next() {
		var r EdgeRow
		if err := rows.Scan(&r.NodeA, &r.NodeB, &r.Idx, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: "edges_extant scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EdgeExists is the `edge_exists` hi-rev-≤r point read. See NodeExists for
// found's three-way semantics.
func (p *Persistence) EdgeExists(ctx context.Context, graph, nodeA, nodeB string, idx int32, branchName string, rev int32) (extant, found bool, err error) {
	const q = `
		SELECT t.extant FROM edges t
		JOIN (
			SELECT graph, nodea, nodeb, idx, branch, MAX(rev) AS rev FROM edges
			WHERE graph = $1 AND nodea = $2 AND nodeb = $3 AND idx = $4 AND branch = $5 AND rev <= $6
			GROUP BY graph, nodea, nodeb, idx, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.branch = hi.branch AND t.rev = hi.rev`
	err = p.tx.QueryRow(ctx, q, graph, nodeA, nodeB, idx, branchName, rev).Scan(&extant)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, &PersistenceError{Op: "edge_exists", Cause: err}
	}
	return extant, true, nil
}

// NodeDirRow is one decided (node, reachable) pair in a nodeA/nodeB
// adjacency direction: Extant is true if any parallel edge (any idx)
// between the pair is effectively extant at the read's (branch, rev), and
// false only when every decided parallel edge there was removed.
type NodeDirRow struct {
	Node   string
	Extant bool
}

// NodeAs is the `nodeAs` reader: every nodeA with a decided effective edge
// into nodeB at (branch, rev) — reachable or not, so an ancestry-merge
// caller can tell "decided unreachable here" from "never decided here"
// (I4, I6, P4, P7).
func (p *Persistence) NodeAs(ctx context.Context, graph, nodeB, branchName string, rev int32) ([]NodeDirRow, error) {
	const q = `
		SELECT t.nodea, bool_or(t.extant) FROM edges t
		JOIN (
			SELECT graph, nodea, nodeb, idx, branch, MAX(rev) AS rev FROM edges
			WHERE graph = $1 AND nodeb = $2 AND branch = $3 AND rev <= $4
			GROUP BY graph, nodea, nodeb, idx, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1 AND t.nodeb = $2
		GROUP BY t.nodea`
	return p.queryNodeDirRows(ctx, "nodeAs", q, graph, nodeB, branchName, rev)
}

// NodeBs is the `nodeBs` reader: every nodeB with a decided effective edge
// from nodeA at (branch, rev) (see NodeAs).
func (p *Persistence) NodeBs(ctx context.Context, graph, nodeA, branchName string, rev int32) ([]NodeDirRow, error) {
	const q = `
		SELECT t.nodeb, bool_or(t.extant) FROM edges t
		JOIN (
			SELECT graph, nodea, nodeb, idx, branch, MAX(rev) AS rev FROM edges
			WHERE graph = $1 AND nodea = $2 AND branch = $3 AND rev <= $4
			GROUP BY graph, nodea, nodeb, idx, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1 AND t.nodea = $2
		GROUP BY t.nodeb`
	return p.queryNodeDirRows(ctx, "nodeBs", q, graph, nodeA, branchName, rev)
}

func (p *Persistence) queryNodeDirRows(ctx context.Context, op, q string, args ...any) ([]NodeDirRow, error) {
	rows, err := p.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, &PersistenceError{Op: op, Cause: err}
	}
	defer rows.Close()

	var out []NodeDirRow
	for rows.Next() {
		var r NodeDirRow
		if err := rows.Scan(&r.Node, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: op + " scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EdgeMultiRow is one decided (idx, extant) pair for a parallel edge slot.
type EdgeMultiRow struct {
	Idx    int32
	Extant bool
}

// MultiEdges is the `multi_edges` reader: every idx with a decided
// effective row for the edge from nodeA to nodeB at (branch, rev), extant
// or not (I5; I4, I6, P4 for the ancestry merge).
func (p *Persistence) MultiEdges(ctx context.Context, graph, nodeA, nodeB, branchName string, rev int32) ([]EdgeMultiRow, error) {
	const q = `
		SELECT t.idx, t.extant FROM edges t
		JOIN (
			SELECT graph, nodea, nodeb, idx, branch, MAX(rev) AS rev FROM edges
			WHERE graph = $1 AND nodea = $2 AND nodeb = $3 AND branch = $4 AND rev <= $5
			GROUP BY graph, nodea, nodeb, idx, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1 AND t.nodea = $2 AND t.nodeb = $3`
	rows, err := p.tx.Query(ctx, q, graph, nodeA, nodeB, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "multi_edges", Cause: err}
	}
	defer rows.Close()

	var out []EdgeMultiRow
	for rows.Next() {
		var r EdgeMultiRow
		if err := rows.Scan(&r.Idx, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: "multi_edges scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EdgeIns is the `edges_ins` insert.
func (p *Persistence) EdgeIns(ctx context.Context, graph, nodeA, nodeB string, idx int32, branchName string, rev int32, extant bool) error {
	_, err := p.exec(ctx, "edges_ins",
		`INSERT INTO edges (graph, nodea, nodeb, idx, branch, rev, extant) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		graph, nodeA, nodeB, idx, branchName, rev, extant)
	return err
}

// EdgeUpd is the `edges_upd` update.
func (p *Persistence) EdgeUpd(ctx context.Context, graph, nodeA, nodeB string, idx int32, branchName string, rev int32, extant bool) error {
	_, err := p.exec(ctx, "edges_upd",
		`UPDATE edges SET extant = $1 WHERE graph = $2 AND nodea = $3 AND nodeb = $4 AND idx = $5 AND branch = $6 AND rev = $7`,
		extant, graph, nodeA, nodeB, idx, branchName, rev)
	return err
}

// EdgeSet inserts, falling back to update (§4.4 Integrity).
func (p *Persistence) EdgeSet(ctx context.Context, graph, nodeA, nodeB string, idx int32, branchName string, rev int32, extant bool) error {
	if err := p.EdgeIns(ctx, graph, nodeA, nodeB, idx, branchName, rev, extant); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.EdgeUpd(ctx, graph, nodeA, nodeB, idx, branchName, rev, extant)
		}
		return err
	}
	return nil
}
