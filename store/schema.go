// Package store implements Persistence (§4.4): the eight-table schema
// (§6.1) as GORM models plus the hand-written pgx query catalog the core
// actually issues against them, mirroring the split the teacher keeps
// between db/postgres.go (GORM, schema/migration concerns) and
// db/postgres_pgx.go (pgx, hot-path query concerns).
package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// maxColumnLen is the length limit of the branch/graph/node/key name
// columns, which carry size:50 tags; NewBranch and NewGraph check branch
// and graph names against it before inserting. Value columns (globals and
// the *_val tables) carry no length limit.
const maxColumnLen = 50

// Global is the single-row-per-key reserved KV table (§6.3: "branch"/"rev").
type Global struct {
	Key   string  `gorm:"primaryKey;size:50;column:key"`
	Value *string `gorm:"column:value"`
}

func (Global) TableName() string { return "global" }

// Branch is one row of the branch genealogy (§4.2's persisted mirror of
// branch.Index).
type Branch struct {
	Branch    string `gorm:"primaryKey;size:50;column:branch"`
	Parent    string `gorm:"size:50;column:parent;default:master"`
	ParentRev int32  `gorm:"column:parent_rev;default:0"`
}

func (Branch) TableName() string { return "branches" }

// Graph records a graph's name and kind.
type Graph struct {
	Graph string `gorm:"primaryKey;size:50;column:graph"`
	Type  string `gorm:"size:50;column:type;check:type IN ('Graph','DiGraph','MultiGraph','MultiDiGraph')"`
}

func (Graph) TableName() string { return "graphs" }

// GraphVal is one revision of one graph-level attribute.
type GraphVal struct {
	Graph  string  `gorm:"primaryKey;size:50;column:graph;index:idx_graph_val_graph_key"`
	Key    string  `gorm:"primaryKey;size:50;column:key;index:idx_graph_val_graph_key"`
	Branch string  `gorm:"primaryKey;size:50;column:branch"`
	Rev    int32   `gorm:"primaryKey;column:rev"`
	Value  *string `gorm:"column:value"`
}

func (GraphVal) TableName() string { return "graph_val" }

// Node is one revision of a node's existence flag.
type Node struct {
	Graph  string `gorm:"primaryKey;size:50;column:graph;index:idx_nodes_graph_node"`
	Node   string `gorm:"primaryKey;size:50;column:node;index:idx_nodes_graph_node"`
	Branch string `gorm:"primaryKey;size:50;column:branch"`
	Rev    int32  `gorm:"primaryKey;column:rev"`
	Extant bool   `gorm:"column:extant"`
}

func (Node) TableName() string { return "nodes" }

// NodeVal is one revision of one node attribute.
type NodeVal struct {
	Graph  string  `gorm:"primaryKey;size:50;column:graph;index:idx_node_val_graph_node"`
	Node   string  `gorm:"primaryKey;size:50;column:node;index:idx_node_val_graph_node"`
	Key    string  `gorm:"primaryKey;size:50;column:key"`
	Branch string  `gorm:"primaryKey;size:50;column:branch"`
	Rev    int32   `gorm:"primaryKey;column:rev"`
	Value  *string `gorm:"column:value"`
}

func (NodeVal) TableName() string { return "node_val" }

// Edge is one revision of an edge's existence flag.
type Edge struct {
	Graph  string `gorm:"primaryKey;size:50;column:graph;index:idx_edges_lookup"`
	NodeA  string `gorm:"primaryKey;size:50;column:nodea;index:idx_edges_lookup"`
	NodeB  string `gorm:"primaryKey;size:50;column:nodeb;index:idx_edges_lookup"`
	Idx    int32  `gorm:"primaryKey;column:idx;index:idx_edges_lookup"`
	Branch string `gorm:"primaryKey;size:50;column:branch"`
	Rev    int32  `gorm:"primaryKey;column:rev"`
	Extant bool   `gorm:"column:extant"`
}

func (Edge) TableName() string { return "edges" }

// EdgeVal is one revision of one edge attribute.
type EdgeVal struct {
	Graph  string  `gorm:"primaryKey;size:50;column:graph;index:idx_edge_val_lookup"`
	NodeA  string  `gorm:"primaryKey;size:50;column:nodea;index:idx_edge_val_lookup"`
	NodeB  string  `gorm:"primaryKey;size:50;column:nodeb;index:idx_edge_val_lookup"`
	Idx    int32   `gorm:"primaryKey;column:idx;index:idx_edge_val_lookup"`
	Key    string  `gorm:"primaryKey;size:50;column:key;index:idx_edge_val_lookup"`
	Branch string  `gorm:"primaryKey;size:50;column:branch"`
	Rev    int32   `gorm:"primaryKey;column:rev"`
	Value  *string `gorm:"column:value"`
}

func (EdgeVal) TableName() string { return "edge_val" }

// OpenSchemaDB opens a plain *gorm.DB for migration purposes only; the hot
// read/write path goes through pgx (persistence.go), matching the
// teacher's PGInfo/PGMigrations (GORM) vs. PostgresDB (pgx) split.
func OpenSchemaDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open schema connection: %w", err)
	}
	return db, nil
}

// InitSchema runs AutoMigrate for all eight tables and seeds the two
// reserved global keys (§6.3) if they are not already present.
func InitSchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&Global{}, &Branch{}, &Graph{},
		&GraphVal{}, &Node{}, &NodeVal{}, &Edge{}, &EdgeVal{},
	); err != nil {
		return fmt.Errorf("store: auto-migrate: %w", err)
	}

	if err := db.WithContext(ctx).FirstOrCreate(&Branch{Branch: "master", Parent: "master", ParentRev: 0},
		Branch{Branch: "master"}).Error; err != nil {
		return fmt.Errorf("store: seed master branch: %w", err)
	}

	rev0 := "0"
	master := "master"
	seeds := []Global{{Key: "branch", Value: &master}, {Key: "rev", Value: &rev0}}
	for _, g := range seeds {
		var existing Global
		err := db.WithContext(ctx).Where("key = ?", g.Key).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.WithContext(ctx).Create(&g).Error; err != nil {
				return fmt.Errorf("store: seed global %q: %w", g.Key, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("store: check global %q: %w", g.Key, err)
		}
	}
	return nil
}

func checkColumnLen(name, val string) error {
	if len(val) > maxColumnLen {
		return fmt.Errorf("store: %s %q exceeds %d-character column limit", name, val, maxColumnLen)
	}
	return nil
}
