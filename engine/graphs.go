package engine

import "context"

// NewGraph registers a graph eagerly (graphs rows aren't buffered; §4.5
// only batches graph_val/nodes/node_val/edges/edge_val).
func (e *Engine) NewGraph(ctx context.Context, name, kind string) error {
	return e.persistence.NewGraph(ctx, name, kind)
}

// DelGraph removes a graph and every attribute/existence row beneath it.
// Entries the caches hold for name become unreachable once ListGraphs no
// longer reports it; nothing further needs to be evicted.
func (e *Engine) DelGraph(ctx context.Context, name string) error {
	return e.persistence.DelGraph(ctx, name)
}

// GraphKind returns the registered type ("Graph", "DiGraph", ...) of name.
func (e *Engine) GraphKind(ctx context.Context, name string) (string, error) {
	return e.persistence.GraphType(ctx, name)
}

// ListGraphs returns every registered graph name.
func (e *Engine) ListGraphs(ctx context.Context) ([]string, error) {
	types, err := e.persistence.GraphsTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(types))
	for g := range types {
		out = append(out, g)
	}
	return out, nil
}

// GraphExists reports whether name is a registered graph.
func (e *Engine) GraphExists(ctx context.Context, name string) (bool, error) {
	n, err := e.persistence.CtGraph(ctx, name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
