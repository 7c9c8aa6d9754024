// Package projector turns raw result rows into typed result shapes.
package projector

import (
	"strings"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
)

// Results is the typed result of a query.
//
// This is a sealed interface - only Rel, Scalar, Tuple and Coll implement
// it, one per find-spec shape.
type Results interface {
	// Len is the number of rows for Rel, 0 or 1 for Scalar and Tuple, and
	// the number of elements for Coll.
	Len() int

	results() // Marker method - seals interface to this package
}

// Rel is the result of `:find ?a ?b`: rows in find order.
type Rel struct {
	Columns []query.Variable
	Rows    [][]core.TypedValue
}

// Scalar is the result of `:find ?a .`. Value is nil when no row matched.
type Scalar struct {
	Value core.TypedValue
}

// Tuple is the result of `:find [?a ?b]`. Values is nil when no row matched.
type Tuple struct {
	Values []core.TypedValue
}

// Coll is the result of `:find [?a ...]`.
type Coll struct {
	Values []core.TypedValue
}

func (Rel) results()    {}
func (Scalar) results() {}
func (Tuple) results()  {}
func (Coll) results()   {}

// Len implements Results.
func (r Rel) Len() int { return len(r.Rows) }

// Len implements Results.
func (s Scalar) Len() int {
	if s.Value == nil {
		return 0
	}
	return 1
}

// Len implements Results.
func (t Tuple) Len() int {
	if t.Values == nil {
		return 0
	}
	return 1
}

// Len implements Results.
func (c Coll) Len() int { return len(c.Values) }

// Empty returns the zero-row result of the given shape.
func Empty(find query.FindSpec) Results {
	switch f := find.(type) {
	case query.FindRel:
		return Rel{Columns: f.Variables, Rows: [][]core.TypedValue{}}
	case query.FindScalar:
		return Scalar{}
	case query.FindTuple:
		return Tuple{}
	case query.FindColl:
		return Coll{Values: []core.TypedValue{}}
	default:
		return nil
	}
}

// Format renders results as EDN: a vector of vectors for Rel, a vector for
// Tuple and Coll, a single value for Scalar. Absent Scalar and Tuple results
// render as nil.
func Format(r Results) string {
	switch x := r.(type) {
	case Rel:
		var b strings.Builder
		b.WriteByte('[')
		for i, row := range x.Rows {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(core.FormatAll(row))
		}
		b.WriteByte(']')
		return b.String()
	case Scalar:
		return core.Format(x.Value)
	case Tuple:
		if x.Values == nil {
			return "nil"
		}
		return core.FormatAll(x.Values)
	case Coll:
		return core.FormatAll(x.Values)
	default:
		return "nil"
	}
}

// Rows returns the results as rows of values, one row per result element.
// Scalar and Coll elements are single-value rows.
func Rows(r Results) [][]core.TypedValue {
	switch x := r.(type) {
	case Rel:
		return x.Rows
	case Scalar:
		if x.Value == nil {
			return nil
		}
		return [][]core.TypedValue{{x.Value}}
	case Tuple:
		if x.Values == nil {
			return nil
		}
		return [][]core.TypedValue{x.Values}
	case Coll:
		rows := make([][]core.TypedValue, len(x.Values))
		for i, v := range x.Values {
			rows[i] = []core.TypedValue{v}
		}
		return rows
	default:
		return nil
	}
}
