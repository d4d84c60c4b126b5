package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Persistence implements §4.4 against PostgreSQL: one pgxpool.Pool, one
// long-lived transaction held open between Open and Commit/Close (§5's
// single-transaction resource model), and the hand-written query catalog
// below. Grounded on db/postgres_pgx.go's PostgresDB (pool wrapper,
// Exec/Query/QueryRow helpers) and db/state_store.go's per-operation query
// string + RowsAffected idiom.
type Persistence struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// Open acquires a connection pool for dsn and begins the one transaction
// that stays open until Commit or Close (§5 Resource acquisition).
func Open(ctx context.Context, dsn string) (*Persistence, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &PersistenceError{Op: "open pool", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &PersistenceError{Op: "ping", Cause: err}
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		pool.Close()
		return nil, &PersistenceError{Op: "begin transaction", Cause: err}
	}
	return &Persistence{pool: pool, tx: tx}, nil
}

// Commit commits the open transaction and starts a fresh one, so the
// Persistence handle remains usable afterward (Engine.commit doesn't
// imply close).
func (p *Persistence) Commit(ctx context.Context) error {
	if err := p.tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "commit", Cause: err}
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "begin transaction after commit", Cause: err}
	}
	p.tx = tx
	return nil
}

// Close commits any pending work and releases the connection pool, on
// every exit path (§5 Resource acquisition).
func (p *Persistence) Close(ctx context.Context) error {
	if err := p.tx.Commit(ctx); err != nil {
		p.pool.Close()
		return &PersistenceError{Op: "commit on close", Cause: err}
	}
	p.pool.Close()
	return nil
}

func (p *Persistence) exec(ctx context.Context, op, sql string, args ...any) (pgconn.CommandTag, error) {
	tag, err := p.tx.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return tag, &IntegrityViolation{Op: op, Cause: err}
		}
		return tag, &PersistenceError{Op: op, Cause: err}
	}
	return tag, nil
}

// SendBatch executes batch against the open transaction, giving
// store/batch's Flush access to pgx's native batched-exec primitive
// (§4.5 WriteBatcher: "Flush (executemany)"). Callers must close the
// returned pgx.BatchResults.
func (p *Persistence) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	return p.tx.SendBatch(ctx, batch)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- globals (§6.3) ---

// CtGlobal is the `ctglobal` presence count.
func (p *Persistence) CtGlobal(ctx context.Context) (int, error) {
	var n int
	if err := p.tx.QueryRow(ctx, `SELECT count(*) FROM global`).Scan(&n); err != nil {
		return 0, &PersistenceError{Op: "ctglobal", Cause: err}
	}
	return n, nil
}

// GlobalItems is the `global_items` enumeration.
func (p *Persistence) GlobalItems(ctx context.Context) (map[string]*string, error) {
	rows, err := p.tx.Query(ctx, `SELECT key, value FROM global`)
	if err != nil {
		return nil, &PersistenceError{Op: "global_items", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]*string)
	for rows.Next() {
		var k string
		var v *string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &PersistenceError{Op: "global_items scan", Cause: err}
		}
		out[k] = v
	}
	return out, rows.Err()
}

// GlobalGet is the `global_get` lookup.
func (p *Persistence) GlobalGet(ctx context.Context, key string) (*string, bool, error) {
	var v *string
	err := p.tx.QueryRow(ctx, `SELECT value FROM global WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "global_get", Cause: err}
	}
	return v, true, nil
}

// GlobalIns is the `global_ins` insert.
func (p *Persistence) GlobalIns(ctx context.Context, key string, value *string) error {
	_, err := p.exec(ctx, "global_ins", `INSERT INTO global (key, value) VALUES ($1, $2)`, key, value)
	return err
}

// GlobalUpd is the `global_upd` update.
func (p *Persistence) GlobalUpd(ctx context.Context, key string, value *string) error {
	_, err := p.exec(ctx, "global_upd", `UPDATE global SET value = $1 WHERE key = $2`, value, key)
	return err
}

// GlobalSet inserts key=value, falling back to update on a uniqueness
// violation (§4.4 Integrity).
func (p *Persistence) GlobalSet(ctx context.Context, key string, value *string) error {
	if err := p.GlobalIns(ctx, key, value); err != nil {
		var iv *IntegrityViolation
		if errors.As(err, &iv) {
			return p.GlobalUpd(ctx, key, value)
		}
		return err
	}
	return nil
}

// GlobalDel is the `global_del` delete.
func (p *Persistence) GlobalDel(ctx context.Context, key string) error {
	_, err := p.exec(ctx, "global_del", `DELETE FROM global WHERE key = $1`, key)
	return err
}

// --- branches (§4.2) ---

// CtBranch is the `ctbranch` presence count.
func (p *Persistence) CtBranch(ctx context.Context, branch string) (int, error) {
	var n int
	if err := p.tx.QueryRow(ctx, `SELECT count(*) FROM branches WHERE branch = $1`, branch).Scan(&n); err != nil {
		return 0, &PersistenceError{Op: "ctbranch", Cause: err}
	}
	return n, nil
}

// AllBranch is the `allbranch` enumeration of (branch, parent, parent_rev).
func (p *Persistence) AllBranch(ctx context.Context) ([]BranchRow, error) {
	rows, err := p.tx.Query(ctx, `SELECT branch, parent, parent_rev FROM branches`)
	if err != nil {
		return nil, &PersistenceError{Op: "allbranch", Cause: err}
	}
	defer rows.Close()

	var out []BranchRow
	for rows.Next() {
		var r BranchRow
		if err := rows.Scan(&r.Branch, &r.Parent, &r.ParentRev); err != nil {
			return nil, &PersistenceError{Op: "allbranch scan", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BranchRow is one row of the `allbranch` enumeration.
type BranchRow struct {
	Branch    string
	Parent    string
	ParentRev int32
}

// NewBranch is the `new_branch` insert, enforcing the column length limit.
func (p *Persistence) NewBranch(ctx context.Context, branch, parent string, parentRev int32) error {
	if err := checkColumnLen("branch", branch); err != nil {
		return err
	}
	_, err := p.exec(ctx, "new_branch",
		`INSERT INTO branches (branch, parent, parent_rev) VALUES ($1, $2, $3)`, branch, parent, parentRev)
	return err
}

// ParRev is the `parrev` lookup (a branch's parent revision).
func (p *Persistence) ParRev(ctx context.Context, branch string) (int32, error) {
	var rev int32
	err := p.tx.QueryRow(ctx, `SELECT parent_rev FROM branches WHERE branch = $1`, branch).Scan(&rev)
	if err != nil {
		return 0, &PersistenceError{Op: "parrev", Cause: err}
	}
	return rev, nil
}

// ParParRev is the `parparrev` lookup (a branch's parent name and revision).
func (p *Persistence) ParParRev(ctx context.Context, branch string) (parent string, parentRev int32, err error) {
	err = p.tx.QueryRow(ctx, `SELECT parent, parent_rev FROM branches WHERE branch = $1`, branch).Scan(&parent, &parentRev)
	if err != nil {
		return "", 0, &PersistenceError{Op: "parparrev", Cause: err}
	}
	return parent, parentRev, nil
}

// --- graphs ---

// CtGraph is the `ctgraph` presence count.
func (p *Persistence) CtGraph(ctx context.Context, graph string) (int, error) {
	var n int
	if err := p.tx.QueryRow(ctx, `SELECT count(*) FROM graphs WHERE graph = $1`, graph).Scan(&n); err != nil {
		return 0, &PersistenceError{Op: "ctgraph", Cause: err}
	}
	return n, nil
}

// GraphsTypes is the `graphs_types` enumeration of (graph, type).
func (p *Persistence) GraphsTypes(ctx context.Context) (map[string]string, error) {
	rows, err := p.tx.Query(ctx, `SELECT graph, type FROM graphs`)
	if err != nil {
		return nil, &PersistenceError{Op: "graphs_types", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var g, t string
		if err := rows.Scan(&g, &t); err != nil {
			return nil, &PersistenceError{Op: "graphs_types scan", Cause: err}
		}
		out[g] = t
	}
	return out, rows.Err()
}

// NewGraph is the `new_graph` insert.
func (p *Persistence) NewGraph(ctx context.Context, graph, kind string) error {
	if err := checkColumnLen("graph", graph); err != nil {
		return err
	}
	_, err := p.exec(ctx, "new_graph", `INSERT INTO graphs (graph, type) VALUES ($1, $2)`, graph, kind)
	return err
}

// GraphType is the `graph_type` lookup.
func (p *Persistence) GraphType(ctx context.Context, graph string) (string, error) {
	var t string
	err := p.tx.QueryRow(ctx, `SELECT type FROM graphs WHERE graph = $1`, graph).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &KeyNotFoundError{Key: graph, Reason: "never-set"}
	}
	if err != nil {
		return "", &PersistenceError{Op: "graph_type", Cause: err}
	}
	return t, nil
}

// DelGraph runs del_edge_val_graph, del_edge_graph (via "edges" deletion),
// del_node_val_graph, del_node_graph, and finally drops the graphs row
// itself — the order alchemy.py's del_graph uses, innermost tables first
// so no foreign key is ever left dangling mid-delete.
func (p *Persistence) DelGraph(ctx context.Context, graph string) error {
	stmts := []string{
		`DELETE FROM edge_val WHERE graph = $1`,
		`DELETE FROM edges WHERE graph = $1`,
		`DELETE FROM node_val WHERE graph = $1`,
		`DELETE FROM nodes WHERE graph = $1`,
		`DELETE FROM graph_val WHERE graph = $1`,
		`DELETE FROM graphs WHERE graph = $1`,
	}
	for _, s := range stmts {
		if _, err := p.exec(ctx, "del_graph", s, graph); err != nil {
			return err
		}
	}
	return nil
}

// DelNodeValGraph is the `del_node_val_graph` bulk delete.
func (p *Persistence) DelNodeValGraph(ctx context.Context, graph string) error {
	_, err := p.exec(ctx, "del_node_val_graph", `DELETE FROM node_val WHERE graph = $1`, graph)
	return err
}

// DelNodeGraph is the `del_node_graph` bulk delete.
func (p *Persistence) DelNodeGraph(ctx context.Context, graph string) error {
	_, err := p.exec(ctx, "del_node_graph", `DELETE FROM nodes WHERE graph = $1`, graph)
	return err
}

// DelEdgeValGraph is the `del_edge_val_graph` bulk delete.
func (p *Persistence) DelEdgeValGraph(ctx context.Context, graph string) error {
	_, err := p.exec(ctx, "del_edge_val_graph", `DELETE FROM edge_val WHERE graph = $1`, graph)
	return err
}
