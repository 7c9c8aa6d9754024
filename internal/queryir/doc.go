// Package queryir provides the constraint graph that sits between the
// algebrizer and the SQL backend.
//
// ARCHITECTURE:
//
// The graph is the abstraction boundary between the Datalog surface syntax
// and the relational store:
//
//	[query text] → [query AST] → [constraint graph] → [SQL]
//
// The algebrizer builds a Graph from a parsed query and a schema snapshot.
// The SQL compiler and the result projector only read it.
//
// GRAPH CONTENTS:
//
//   - Sources: one datoms table occurrence per where-clause pattern, aliased
//     datoms00, datoms01, ... in clause order.
//   - Constraints: column equalities (joins on shared variables), column
//     equals value (literals and inputs) and value_type_tag filters.
//   - Bindings: every column each variable occupies. The first entry is the
//     variable's canonical column.
//   - KnownTypes: the value type of each variable, narrowed monotonically.
//   - Projection: the find variables in order, each with the column that
//     produces it and its value type, or the tag column that carries the type
//     when the type is only known at run time.
//   - Empty: set when the query can be proven to return nothing without
//     touching the store (an entity ident that does not resolve, say).
//
// SEALED INTERFACES:
//
// Constraint is a sealed interface using the marker method pattern. Only
// types in this package implement it, so backends can switch exhaustively:
//
//	switch c := constraint.(type) {
//	case ColumnEquals:
//	    // join
//	case ValueEquals:
//	    // literal filter
//	case TagIn:
//	    // type filter
//	}
//
// PARAMETERS:
//
// Literal values stay core.TypedValue in the graph. Backends encode them as
// bound parameters; values are never interpolated into query text.
package queryir
