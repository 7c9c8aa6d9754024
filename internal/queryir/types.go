package queryir

import (
	"fmt"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
)

// DatomsTable is the table every source reads.
const DatomsTable = "datoms"

// Column is a column of the datoms table.
type Column int

const (
	ColumnEntity Column = iota
	ColumnAttribute
	ColumnValue
	ColumnTx
	ColumnValueTypeTag
)

// Name returns the SQL column name.
func (c Column) Name() string {
	switch c {
	case ColumnEntity:
		return "e"
	case ColumnAttribute:
		return "a"
	case ColumnValue:
		return "v"
	case ColumnTx:
		return "tx"
	case ColumnValueTypeTag:
		return "value_type_tag"
	default:
		return fmt.Sprintf("column(%d)", int(c))
	}
}

// SourceAlias returns the alias of the source for the n-th pattern (0-based).
func SourceAlias(n int) string {
	return fmt.Sprintf("%s%02d", DatomsTable, n)
}

// Source is one occurrence of the datoms table, produced by one pattern.
type Source struct {
	Alias  string
	Table  string
	Clause int

	// LiteralEntity is set when the pattern's entity slot is a literal.
	LiteralEntity bool

	// LiteralAttribute is set when the pattern's attribute slot is a literal.
	LiteralAttribute bool

	// Attribute is the resolved attribute entid when LiteralAttribute is set.
	Attribute core.Entid
}

// ColumnRef names a column of a source.
type ColumnRef struct {
	Alias  string
	Column Column
}

func (c ColumnRef) String() string {
	return c.Alias + "." + c.Column.Name()
}

// Constraint restricts the rows a graph produces.
//
// This is a sealed interface - only types in this package implement it.
//
// Constraint types:
//   - ColumnEquals: two columns hold the same value (a join)
//   - ValueEquals: a column holds a literal value
//   - TagIn: a source's value_type_tag is one of a set
//   - StorageClass: a column's SQLite storage class is fixed
//   - SameStorageClass: two columns share a storage class
type Constraint interface {
	constraintNode() // Marker method - seals interface to this package
}

// ColumnEquals represents left = right.
type ColumnEquals struct {
	Left  ColumnRef
	Right ColumnRef
}

// ValueEquals represents column = value, with value bound as a parameter.
type ValueEquals struct {
	Column ColumnRef
	Value  core.TypedValue
}

// TagIn represents alias.value_type_tag IN (tags...).
type TagIn struct {
	Alias string
	Tags  []int
}

// StorageClass represents typeof(column) = class. Long and Double share a
// value_type_tag, so an untyped value column narrowed to either also needs
// its storage class.
type StorageClass struct {
	Column ColumnRef
	Class  string
}

// SameStorageClass represents typeof(left) = typeof(right).
type SameStorageClass struct {
	Left  ColumnRef
	Right ColumnRef
}

func (ColumnEquals) constraintNode()     {}
func (ValueEquals) constraintNode()      {}
func (TagIn) constraintNode()            {}
func (StorageClass) constraintNode()     {}
func (SameStorageClass) constraintNode() {}

// Projected is one find variable and where its values come from.
type Projected struct {
	Variable query.Variable
	Column   ColumnRef

	// Type is the variable's value type, or zero when it is only known per
	// row from TagColumn.
	Type      core.ValueType
	TagColumn ColumnRef
}

// TypeKnown reports whether the value type is fixed for every row.
func (p Projected) TypeKnown() bool {
	return p.Type != 0
}

// EmptyReason explains why a graph cannot produce rows.
type EmptyReason struct {
	Clause int
	Reason string
}

func (e EmptyReason) String() string {
	if e.Clause > 0 {
		return fmt.Sprintf("clause %d: %s", e.Clause, e.Reason)
	}
	return e.Reason
}

// Graph is an algebrized query.
type Graph struct {
	Find        query.FindSpec
	Sources     []Source
	Constraints []Constraint
	Bindings    map[query.Variable][]ColumnRef
	KnownTypes  map[query.Variable]core.ValueType
	Projection  []Projected

	// Empty is non-nil when the query is known to produce no rows.
	Empty *EmptyReason
}

// NewGraph returns an empty graph for the given find-spec.
func NewGraph(find query.FindSpec) *Graph {
	return &Graph{
		Find:       find,
		Bindings:   make(map[query.Variable][]ColumnRef),
		KnownTypes: make(map[query.Variable]core.ValueType),
	}
}

// IsKnownEmpty reports whether the graph can be answered without the store.
func (g *Graph) IsKnownEmpty() bool {
	return g.Empty != nil
}

// MarkEmpty records the first reason the graph is empty. Later reasons are
// ignored.
func (g *Graph) MarkEmpty(clause int, format string, args ...any) {
	if g.Empty == nil {
		g.Empty = &EmptyReason{Clause: clause, Reason: fmt.Sprintf(format, args...)}
	}
}

// Source returns the source with the given alias.
func (g *Graph) Source(alias string) (Source, bool) {
	for _, s := range g.Sources {
		if s.Alias == alias {
			return s, true
		}
	}
	return Source{}, false
}
