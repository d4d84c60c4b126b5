package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/evalgo/graphstore/value"
)

// EncodeOrNull renders v for the `value` column: the tombstone becomes SQL
// NULL (§6.2), everything else goes through value.Encode.
func EncodeOrNull(v value.Value) (*string, error) {
	if v.IsTombstone() {
		return nil, nil
	}
	s, err := value.Encode(v)
	if err != nil {
		return nil, &TypeError{Column: "value", Cause: err}
	}
	return &s, nil
}

// DecodeOrTombstone is EncodeOrNull's inverse: a NULL column decodes to
// the tombstone sentinel.
func DecodeOrTombstone(s *string) (value.Value, error) {
	if s == nil {
		return value.Tombstone, nil
	}
	v, err := value.Decode(*s)
	if err != nil {
		return value.Value{}, &TypeError{Column: "value", Cause: err}
	}
	return v, nil
}

// --- graph_val ---

// GraphValItems is the `graph_val_items` hi-rev-≤r read: every key's most
// recent revision at or before rev on branch, tombstoned keys included
// (value.Tombstone) — so an ancestry-merge caller can tell "decided
// deleted here" from "never decided here" and stop propagating a shadowed
// key from an ancestor branch (I4, I6, P4). Callers that want only live
// attributes must filter value.IsTombstone() themselves after merging.
func (p *Persistence) GraphValItems(ctx context.Context, graph, branchName string, rev int32) (map[string]value.Value, error) {
	const q = `
		SELECT t.key, t.value FROM graph_val t
		JOIN (
			SELECT graph, key, branch, MAX(rev) AS rev FROM graph_val
			WHERE graph = $1 AND branch = $2 AND rev <= $3
			GROUP BY graph, key, branch
		) hi ON t.graph = hi.graph AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1`
	rows, err := p.tx.Query(ctx, q, graph, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "graph_val_items", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]value.Value)
	for rows.Next() {
		var key string
		var raw *string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, &PersistenceError{Op: "graph_val_items scan", Cause: err}
		}
		v, err := DecodeOrTombstone(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, rows.Err()
}

// GraphValGet is the `graph_val_get` hi-rev-≤r point read. found reports
// whether a row exists at (branch, rev) at all — including an explicit
// tombstone — distinct from no row existing (I4, I6): callers must check
// v.IsTombstone() themselves to tell "deleted here, stop" from "a live
// value", but either way found=true means the ancestry walk must stop.
func (p *Persistence) GraphValGet(ctx context.Context, graph, key, branchName string, rev int32) (v value.Value, found bool, err error) {
	const q = `
		SELECT t.value FROM graph_val t
		JOIN (
			SELECT graph, key, branch, MAX(rev) AS rev FROM graph_val
			WHERE graph = $1 AND key = $2 AND branch = $3 AND rev <= $4
			GROUP BY graph, key, branch
		) hi ON t.graph = hi.graph AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev`
	var raw *string
	err = p.tx.QueryRow(ctx, q, graph, key, branchName, rev).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, &PersistenceError{Op: "graph_val_get", Cause: err}
	}
	v, err = DecodeOrTombstone(raw)
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

// GraphValIns is the `graph_val_ins` insert.
func (p *Persistence) GraphValIns(ctx context.Context, graph, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "graph_val_ins",
		`INSERT INTO graph_val (graph, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5)`,
		graph, key, branchName, rev, raw)
	return err
}

// GraphValUpd is the `graph_val_upd` update.
func (p *Persistence) GraphValUpd(ctx context.Context, graph, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "graph_val_upd",
		`UPDATE graph_val SET value = $1 WHERE graph = $2 AND key = $3 AND branch = $4 AND rev = $5`,
		raw, graph, key, branchName, rev)
	return err
}

// GraphValSet inserts, falling back to update on a uniqueness violation
// (§4.4 Integrity — overwriting the same (graph,key,branch,rev) tuple).
func (p *Persistence) GraphValSet(ctx context.Context, graph, key, branchName string, rev int32, v value.Value) error {
	if err := p.GraphValIns(ctx, graph, key, branchName, rev, v); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.GraphValUpd(ctx, graph, key, branchName, rev, v)
		}
		return err
	}
	return nil
}

// --- node_val ---

// NodeValItems is the `node_val_items` hi-rev-≤r read for one node,
// tombstoned keys included (see GraphValItems).
func (p *Persistence) NodeValItems(ctx context.Context, graph, node, branchName string, rev int32) (map[string]value.Value, error) {
	const q = `
		SELECT t.key, t.value FROM node_val t
		JOIN (
			SELECT graph, node, key, branch, MAX(rev) AS rev FROM node_val
			WHERE graph = $1 AND node = $2 AND branch = $3 AND rev <= $4
			GROUP BY graph, node, key, branch
		) hi ON t.graph = hi.graph AND t.node = hi.node AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1 AND t.node = $2`
	rows, err := p.tx.Query(ctx, q, graph, node, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "node_val_items", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]value.Value)
	for rows.Next() {
		var key string
		var raw *string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, &PersistenceError{Op: "node_val_items scan", Cause: err}
		}
		v, err := DecodeOrTombstone(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, rows.Err()
}

// NodeValGet is the `node_val_get` hi-rev-≤r point read. See GraphValGet
// for found's three-way semantics.
func (p *Persistence) NodeValGet(ctx context.Context, graph, node, key, branchName string, rev int32) (v value.Value, found bool, err error) {
	const q = `
		SELECT t.value FROM node_val t
		JOIN (
			SELECT graph, node, key, branch, MAX(rev) AS rev FROM node_val
			WHERE graph = $1 AND node = $2 AND key = $3 AND branch = $4 AND rev <= $5
			GROUP BY graph, node, key, branch
		) hi ON t.graph = hi.graph AND t.node = hi.node AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev`
	var raw *string
	err = p.tx.QueryRow(ctx, q, graph, node, key, branchName, rev).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, &PersistenceError{Op: "node_val_get", Cause: err}
	}
	v, err = DecodeOrTombstone(raw)
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

// NodeValIns is the `node_val_ins` insert.
func (p *Persistence) NodeValIns(ctx context.Context, graph, node, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "node_val_ins",
		`INSERT INTO node_val (graph, node, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5, $6)`,
		graph, node, key, branchName, rev, raw)
	return err
}

// NodeValUpd is the `node_val_upd` update.
func (p *Persistence) NodeValUpd(ctx context.Context, graph, node, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "node_val_upd",
		`UPDATE node_val SET value = $1 WHERE graph = $2 AND node = $3 AND key = $4 AND branch = $5 AND rev = $6`,
		raw, graph, node, key, branchName, rev)
	return err
}

// NodeValSet inserts, falling back to update (§4.4 Integrity).
func (p *Persistence) NodeValSet(ctx context.Context, graph, node, key, branchName string, rev int32, v value.Value) error {
	if err := p.NodeValIns(ctx, graph, node, key, branchName, rev, v); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.NodeValUpd(ctx, graph, node, key, branchName, rev, v)
		}
		return err
	}
	return nil
}

// --- edge_val ---

// EdgeValItems is the `edge_val_items` hi-rev-≤r read for one edge,
// tombstoned keys included (see GraphValItems).
func (p *Persistence) EdgeValItems(ctx context.Context, graph, nodeA, nodeB string, idx int32, branchName string, rev int32) (map[string]value.Value, error) {
	const q = `
		SELECT t.key, t.value FROM edge_val t
		JOIN (
			SELECT graph, nodea, nodeb, idx, key, branch, MAX(rev) AS rev FROM edge_val
			WHERE graph = $1 AND nodea = $2 AND nodeb = $3 AND idx = $4 AND branch = $5 AND rev <= $6
			GROUP BY graph, nodea, nodeb, idx, key, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev
		WHERE t.graph = $1 AND t.nodea = $2 AND t.nodeb = $3 AND t.idx = $4`
	rows, err := p.tx.Query(ctx, q, graph, nodeA, nodeB, idx, branchName, rev)
	if err != nil {
		return nil, &PersistenceError{Op: "edge_val_items", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]value.Value)
	for rows.Next() {
		var key string
		var raw *string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, &PersistenceError{Op: "edge_val_items scan", Cause: err}
		}
		v, err := DecodeOrTombstone(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, rows.Err()
}

// EdgeValGet is the `edge_val_get` hi-rev-≤r point read. See GraphValGet
// for found's three-way semantics.
func (p *Persistence) EdgeValGet(ctx context.Context, graph, nodeA, nodeB string, idx int32, key, branchName string, rev int32) (v value.Value, found bool, err error) {
	const q = `
		SELECT t.value FROM edge_val t
		JOIN (
			SELECT graph, nodea, nodeb, idx, key, branch, MAX(rev) AS rev FROM edge_val
			WHERE graph = $1 AND nodea = $2 AND nodeb = $3 AND idx = $4 AND key = $5 AND branch = $6 AND rev <= $7
			GROUP BY graph, nodea, nodeb, idx, key, branch
		) hi ON t.graph = hi.graph AND t.nodea = hi.nodea AND t.nodeb = hi.nodeb
			AND t.idx = hi.idx AND t.key = hi.key AND t.branch = hi.branch AND t.rev = hi.rev`
	var raw *string
	err = p.tx.QueryRow(ctx, q, graph, nodeA, nodeB, idx, key, branchName, rev).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, &PersistenceError{Op: "edge_val_get", Cause: err}
	}
	v, err = DecodeOrTombstone(raw)
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

// EdgeValIns is the `edge_val_ins` insert.
func (p *Persistence) EdgeValIns(ctx context.Context, graph, nodeA, nodeB string, idx int32, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "edge_val_ins",
		`INSERT INTO edge_val (graph, nodea, nodeb, idx, key, branch, rev, value) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		graph, nodeA, nodeB, idx, key, branchName, rev, raw)
	return err
}

// EdgeValUpd is the `edge_val_upd` update.
func (p *Persistence) EdgeValUpd(ctx context.Context, graph, nodeA, nodeB string, idx int32, key, branchName string, rev int32, v value.Value) error {
	raw, err := EncodeOrNull(v)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, "edge_val_upd",
		`UPDATE edge_val SET value = $1 WHERE graph = $2 AND nodea = $3 AND nodeb = $4 AND idx = $5 AND key = $6 AND branch = $7 AND rev = $8`,
		raw, graph, nodeA, nodeB, idx, key, branchName, rev)
	return err
}

// EdgeValSet inserts, falling back to update (§4.4 Integrity).
func (p *Persistence) EdgeValSet(ctx context.Context, graph, nodeA, nodeB string, idx int32, key, branchName string, rev int32, v value.Value) error {
	if err := p.EdgeValIns(ctx, graph, nodeA, nodeB, idx, key, branchName, rev, v); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.EdgeValUpd(ctx, graph, nodeA, nodeB, idx, key, branchName, rev, v)
		}
		return err
	}
	return nil
}
