package store

import "context"

// GraphValDumpRow is one row of `graph_val_dump`.
type GraphValDumpRow struct {
	Graph, Key, Branch string
	Rev                int32
	Value              *string
}

// GraphValDump is the `graph_val_dump` bulk export, used by façade/tooling
// callers that need every revision ever recorded, not just the effective
// one at a single (branch, rev) — kept in the catalog per §4.4's explicit
// listing even though the core engine itself never calls it.
func (p *Persistence) GraphValDump(ctx context.Context) ([]GraphValDumpRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, key, branch, rev, value FROM graph_val`)
	if err != nil {
		return nil, &PersistenceError{Op: "graph_val_dump", Cause: err}
	}
	defer rows.Close()

	var out []GraphValDumpRow
	for rows.Next() {
		var r GraphValDumpRow
		if err := rows.Scan(&r.Graph, &r.Key, &r.Branch, &r.Rev, &r.Value); err != nil {
			return nil, &PersistenceError{Op: "graph_val_dump scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NodesDumpRow is one row of `nodes_dump`.
type NodesDumpRow struct {
	Graph, Node, Branch string
	Rev                 int32
	Extant              bool
}

// NodesDump is the `nodes_dump` bulk export.
func (p *Persistence) NodesDump(ctx context.Context) ([]NodesDumpRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, node, branch, rev, extant FROM nodes`)
	if err != nil {
		return nil, &PersistenceError{Op: "nodes_dump", Cause: err}
	}
	defer rows.Close()

	var out []NodesDumpRow
	for rows.Next() {
		var r NodesDumpRow
		if err := rows.Scan(&r.Graph, &r.Node, &r.Branch, &r.Rev, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: "nodes_dump scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NodeValDumpRow is one row of `node_val_dump`.
type NodeValDumpRow struct {
	Graph, Node, Key, Branch string
	Rev                      int32
	Value                    *string
}

// NodeValDump is the `node_val_dump` bulk export.
func (p *Persistence) NodeValDump(ctx context.Context) ([]NodeValDumpRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, node, key, branch, rev, value FROM node_val`)
	if err != nil {
		return nil, &PersistenceError{Op: "node_val_dump", Cause: err}
	}
	defer rows.Close()

	var out []NodeValDumpRow
	for rows.Next() {
		var r NodeValDumpRow
		if err := rows.Scan(&r.Graph, &r.Node, &r.Key, &r.Branch, &r.Rev, &r.Value); err != nil {
			return nil, &PersistenceError{Op: "node_val_dump scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EdgesDumpRow is one row of `edges_dump`.
type EdgesDumpRow struct {
	Graph, NodeA, NodeB, Branch string
	Idx, Rev                    int32
	Extant                      bool
}

// EdgesDump is the `edges_dump` bulk export.
func (p *Persistence) EdgesDump(ctx context.Context) ([]EdgesDumpRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, nodea, nodeb, idx, branch, rev, extant FROM edges`)
	if err != nil {
		return nil, &PersistenceError{Op: "edges_dump", Cause: err}
	}
	defer rows.Close()

	var out []EdgesDumpRow
	for rows.Next() {
		var r EdgesDumpRow
		if err := rows.Scan(&r.Graph, &r.NodeA, &r.NodeB, &r.Idx, &r.Branch, &r.Rev, &r.Extant); err != nil {
			return nil, &PersistenceError{Op: "edges_dump scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EdgeValDumpRow is one row of `edge_val_dump`.
type EdgeValDumpRow struct {
	Graph, NodeA, NodeB, Key, Branch string
	Idx, Rev                         int32
	Value                            *string
}

// EdgeValDump is the `edge_val_dump` bulk export.
func (p *Persistence) EdgeValDump(ctx context.Context) ([]EdgeValDumpRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, nodea, nodeb, idx, key, branch, rev, value FROM edge_val`)
	if err != nil {
		return nil, &PersistenceError{Op: "edge_val_dump", Cause: err}
	}
	defer rows.Close()

	var out []EdgeValDumpRow
	for rows.Next() {
		var r EdgeValDumpRow
		if err := rows.Scan(&r.Graph, &r.NodeA, &r.NodeB, &r.Idx, &r.Key, &r.Branch, &r.Rev, &r.Value); err != nil {
			return nil, &PersistenceError{Op: "edge_val_dump scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
