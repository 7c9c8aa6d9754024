// Package tessera embeds a Datalog query engine over a SQLite datom store.
//
//	db, err := tessera.Open("facts.db")
//	if err != nil { ... }
//	defer db.Close()
//
//	if _, err := db.InstallFile(ctx, "people.cue"); err != nil { ... }
//	res, err := db.Q(ctx, `[:find ?e . :in $ ?n :where [?e :person/name ?n]]`,
//		tessera.Inputs{"?n": tessera.String("Ada")})
//
// Results are one of Rel, Scalar, Tuple or Coll, chosen by the find spec.
package tessera

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/tessera/internal/algebrize"
	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/engine"
	"github.com/roach88/tessera/internal/projector"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/schema"
	"github.com/roach88/tessera/internal/store"
	"github.com/roach88/tessera/internal/vocab"
)

// Values.
type (
	TypedValue = core.TypedValue
	ValueType  = core.ValueType
	Entid      = core.Entid
	Ref        = core.Ref
	String     = core.String
	Boolean    = core.Boolean
	Long       = core.Long
	Double     = core.Double
	Instant    = core.Instant
	UUID       = core.UUID
	Keyword    = core.Keyword
)

var (
	NewKeyword  = core.NewKeyword
	NewInstant  = core.NewInstant
	FormatValue = core.Format
)

// Results.
type (
	Results  = projector.Results
	Rel      = projector.Rel
	Scalar   = projector.Scalar
	Tuple    = projector.Tuple
	Coll     = projector.Coll
	Variable = query.Variable
	Inputs   = algebrize.Inputs
)

// Format renders results as EDN.
var Format = projector.Format

// Errors.
type (
	QueryError = core.QueryError
	ErrorCode  = core.ErrorCode
)

const (
	ErrCodeParse               = core.ErrCodeParse
	ErrCodeUnknownAttribute    = core.ErrCodeUnknownAttribute
	ErrCodeTypeConflict        = core.ErrCodeTypeConflict
	ErrCodeUnboundFindVariable = core.ErrCodeUnboundFindVariable
	ErrCodeInvalidInput        = core.ErrCodeInvalidInput
	ErrCodeStoreExecution      = core.ErrCodeStoreExecution
)

// CodeOf returns the query error code in err's chain, or "".
var CodeOf = core.CodeOf

// Writes.
type (
	Fact       = store.Fact
	TxReport   = store.TxReport
	Definition = store.Definition
	Attribute  = schema.Attribute
	Schema     = schema.Schema
)

// DB is an open datom store with a query engine over it.
type DB struct {
	store  *store.Store
	engine *engine.Engine
}

type options struct {
	logger *slog.Logger
	limit  int
}

// Option configures Open.
type Option func(*options)

// WithLogger sends store and engine logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLimit sets the default row limit for Rel and Coll queries.
func WithLimit(limit int) Option {
	return func(o *options) { o.limit = limit }
}

// Open opens or creates the store at path. An empty path opens a private
// in-memory store.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(path, store.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return &DB{store: st, engine: engine.New(st, engine.WithLimit(o.limit))}, nil
}

// Close closes the store.
func (db *DB) Close() error {
	return db.store.Close()
}

// Q runs a query with the default limit.
func (db *DB) Q(ctx context.Context, text string, inputs Inputs) (Results, error) {
	return db.engine.Query(ctx, text, inputs)
}

// QueryLimit runs a query with an explicit limit; zero is unlimited.
func (db *DB) QueryLimit(ctx context.Context, text string, inputs Inputs, limit int) (Results, error) {
	return db.engine.QueryLimit(ctx, text, inputs, limit)
}

// Q runs a query against db.
func Q(ctx context.Context, db *DB, text string, inputs Inputs) (Results, error) {
	return db.Q(ctx, text, inputs)
}

// Schema returns the current schema snapshot.
func (db *DB) Schema(ctx context.Context) (*Schema, error) {
	return db.store.Schema(ctx)
}

// Install installs attribute definitions and returns their entids.
func (db *DB) Install(ctx context.Context, defs []Definition) ([]Entid, error) {
	return db.store.InstallAttributes(ctx, defs)
}

// InstallFile installs the attributes of a CUE vocabulary file.
func (db *DB) InstallFile(ctx context.Context, path string) ([]Entid, error) {
	defs, err := vocab.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return db.Install(ctx, defs)
}

// InstallSource installs the attributes of CUE vocabulary source.
func (db *DB) InstallSource(ctx context.Context, src []byte) ([]Entid, error) {
	defs, err := vocab.Compile("vocabulary.cue", src)
	if err != nil {
		return nil, err
	}
	return db.Install(ctx, defs)
}

// AllocateEntids reserves n fresh entity ids.
func (db *DB) AllocateEntids(ctx context.Context, n int) ([]Entid, error) {
	return db.store.AllocateEntids(ctx, n)
}

// Assert adds facts in one transaction.
func (db *DB) Assert(ctx context.Context, facts []Fact) (TxReport, error) {
	return db.store.Assert(ctx, facts)
}
