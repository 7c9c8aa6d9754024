package engine

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/roach88/tessera/internal/algebrize"
	"github.com/roach88/tessera/internal/projector"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/queryir"
	"github.com/roach88/tessera/internal/querysql"
	"github.com/roach88/tessera/internal/schema"
)

// Querier executes SQL against the datom store. *store.Store implements it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SchemaSource supplies schema snapshots. *store.Store implements it.
type SchemaSource interface {
	Schema(ctx context.Context) (*schema.Schema, error)
}

// Store is a Querier that also supplies its own schema.
type Store interface {
	Querier
	SchemaSource
}

// Plan is a query prepared against one schema snapshot.
//
// Compiled is the zero value when the graph is known to be empty; running
// such a plan never touches the store.
type Plan struct {
	Query    *query.Query
	Graph    *queryir.Graph
	Compiled querysql.Compiled
}

// Prepare parses, algebrizes and compiles a query without running it.
// A limit of zero or less means unlimited.
func Prepare(s *schema.Schema, text string, inputs algebrize.Inputs, limit int) (*Plan, error) {
	q, err := query.Parse(text)
	if err != nil {
		return nil, err
	}

	g, err := algebrize.Algebrize(s, q, inputs)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Query: q, Graph: g}
	if g.IsKnownEmpty() {
		slog.Debug("query known empty", "reason", g.Empty.String())
		return plan, nil
	}

	compiler := querysql.NewSQLCompiler()
	compiler.Limit = limit
	compiled, err := compiler.Compile(g)
	if err != nil {
		return nil, err
	}
	plan.Compiled = compiled

	slog.Debug("query compiled", "sql", compiled.SQL, "args", compiled.Args)
	return plan, nil
}

// Run executes the plan and projects its rows.
func (p *Plan) Run(ctx context.Context, conn Querier) (projector.Results, error) {
	if p.Graph.IsKnownEmpty() {
		return projector.Empty(p.Graph.Find), nil
	}

	rows, err := execute(ctx, conn, p.Compiled)
	if err != nil {
		return nil, err
	}

	results, err := projector.Project(p.Graph, rows)
	if err != nil {
		return nil, err
	}

	slog.Debug("query projected", "rows", len(rows), "len", results.Len())
	return results, nil
}

// Q runs a query against conn using the schema snapshot s.
//
// inputs binds the variables named by the query's :in clause. A limit of
// zero or less means unlimited; Scalar and Tuple queries read at most one
// row regardless. Failures abort the call; there are no partial results.
func Q(ctx context.Context, conn Querier, s *schema.Schema, text string, inputs algebrize.Inputs, limit int) (projector.Results, error) {
	plan, err := Prepare(s, text, inputs, limit)
	if err != nil {
		return nil, err
	}
	return plan.Run(ctx, conn)
}

// Engine runs queries against a store, reading a fresh schema snapshot per
// call.
type Engine struct {
	store Store
	limit int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLimit sets the default row limit for Rel and Coll queries.
//
// Default: 0 (unlimited).
func WithLimit(limit int) EngineOption {
	return func(e *Engine) {
		e.limit = limit
	}
}

// New creates an Engine over the given store.
func New(s Store, opts ...EngineOption) *Engine {
	e := &Engine{store: s}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query runs a query with the engine's default limit.
func (e *Engine) Query(ctx context.Context, text string, inputs algebrize.Inputs) (projector.Results, error) {
	return e.QueryLimit(ctx, text, inputs, e.limit)
}

// QueryLimit runs a query with an explicit limit.
func (e *Engine) QueryLimit(ctx context.Context, text string, inputs algebrize.Inputs, limit int) (projector.Results, error) {
	s, err := e.store.Schema(ctx)
	if err != nil {
		return nil, err
	}
	return Q(ctx, e.store, s, text, inputs, limit)
}

// Explain prepares a query against the current schema without running it.
func (e *Engine) Explain(ctx context.Context, text string, inputs algebrize.Inputs) (*Plan, error) {
	s, err := e.store.Schema(ctx)
	if err != nil {
		return nil, err
	}
	return Prepare(s, text, inputs, e.limit)
}
