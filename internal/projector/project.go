package projector

import (
	"fmt"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/queryir"
)

// Project decodes raw rows into the shape of the graph's find-spec.
//
// Each row holds one cell per projected variable, followed directly by a
// value_type_tag cell for each variable whose type is only known at run
// time. Scalar and Tuple take the first row; Coll takes the first column of
// every row. Zero rows is an empty result, not an error.
//
// A cell that cannot be decoded as its column's type is a programming error
// and panics (see core.FromSQL).
func Project(g *queryir.Graph, rows [][]any) (Results, error) {
	width := 0
	for _, p := range g.Projection {
		width++
		if !p.TypeKnown() {
			width++
		}
	}

	decoded := make([][]core.TypedValue, len(rows))
	for i, raw := range rows {
		if len(raw) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(raw), width)
		}
		row, err := decodeRow(g.Projection, raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		decoded[i] = row
	}

	switch f := g.Find.(type) {
	case query.FindRel:
		return Rel{Columns: f.Variables, Rows: decoded}, nil
	case query.FindScalar:
		if len(decoded) == 0 {
			return Scalar{}, nil
		}
		return Scalar{Value: decoded[0][0]}, nil
	case query.FindTuple:
		if len(decoded) == 0 {
			return Tuple{}, nil
		}
		return Tuple{Values: decoded[0]}, nil
	case query.FindColl:
		values := make([]core.TypedValue, len(decoded))
		for i, row := range decoded {
			values[i] = row[0]
		}
		return Coll{Values: values}, nil
	default:
		return nil, fmt.Errorf("unsupported find-spec %T", g.Find)
	}
}

func decodeRow(projection []queryir.Projected, raw []any) ([]core.TypedValue, error) {
	row := make([]core.TypedValue, len(projection))
	cell := 0
	for i, p := range projection {
		if p.TypeKnown() {
			row[i] = core.FromSQL(raw[cell], p.Type)
			cell++
			continue
		}
		tag, ok := raw[cell+1].(int64)
		if !ok {
			return nil, fmt.Errorf("%s: value_type_tag %v (%T) is not an integer", p.Variable, raw[cell+1], raw[cell+1])
		}
		row[i] = core.FromSQLTag(raw[cell], tag)
		cell += 2
	}
	return row, nil
}
