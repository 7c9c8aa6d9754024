// Package querysql compiles constraint graphs to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/queryir"
)

// SQLCompiler compiles a constraint graph to one SELECT over the datoms
// table.
//
// CRITICAL: ALL queries include ORDER BY on the projected columns, so the
// same query over the same data returns rows in the same order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Limit caps the rows of Rel and Coll queries. Zero or less means
	// unlimited. Scalar and Tuple queries always read one row.
	Limit int
}

// NewSQLCompiler creates a new SQLCompiler with no limit.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Column is one result column of a compiled query.
type Column struct {
	// Name is the SQL alias, e.g. "?x" or "?v_value_type_tag".
	Name string

	Variable query.Variable

	// Tag marks the value_type_tag companion column of Variable.
	Tag bool
}

// Compiled is the SQL for a graph with its parameters and result columns.
type Compiled struct {
	SQL     string
	Args    []any
	Columns []Column
}

// Compile converts a graph to parameterized SQL.
//
// MANDATORY: Every query includes ORDER BY per the determinism rule.
// MANDATORY: All values are parameterized (never interpolated).
func (c *SQLCompiler) Compile(g *queryir.Graph) (Compiled, error) {
	if g == nil {
		return Compiled{}, fmt.Errorf("cannot compile nil graph")
	}
	if result := queryir.Validate(g); !result.Valid {
		return Compiled{}, fmt.Errorf("invalid graph: %s", strings.Join(result.Problems, "; "))
	}

	var (
		b    strings.Builder
		args []any
	)

	columns := projectColumns(g.Projection)

	b.WriteString("SELECT ")
	if distinct(g.Find) {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(c.compileProjection(g.Projection))

	b.WriteString(" FROM ")
	b.WriteString(compileFrom(g.Sources))

	if len(g.Constraints) > 0 {
		where, whereArgs, err := c.compileConstraints(g.Constraints)
		if err != nil {
			return Compiled{}, fmt.Errorf("compile constraints: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		args = append(args, whereArgs...)
	}

	// MANDATORY: Always add ORDER BY
	b.WriteString(" ORDER BY ")
	b.WriteString(stableOrderKey(columns))

	switch g.Find.(type) {
	case query.FindScalar, query.FindTuple:
		b.WriteString(" LIMIT 1")
	default:
		if c.Limit > 0 {
			b.WriteString(" LIMIT ?")
			args = append(args, int64(c.Limit))
		}
	}

	return Compiled{SQL: b.String(), Args: args, Columns: columns}, nil
}

// distinct reports whether the find-spec has set semantics.
func distinct(find query.FindSpec) bool {
	switch find.(type) {
	case query.FindRel, query.FindColl:
		return true
	default:
		return false
	}
}

func projectColumns(projection []queryir.Projected) []Column {
	var columns []Column
	for _, p := range projection {
		columns = append(columns, Column{Name: string(p.Variable), Variable: p.Variable})
		if !p.TypeKnown() {
			columns = append(columns, Column{Name: tagColumnName(p.Variable), Variable: p.Variable, Tag: true})
		}
	}
	return columns
}

func tagColumnName(v query.Variable) string {
	return string(v) + "_value_type_tag"
}

// compileProjection renders the SELECT list.
// Example: datoms00.e AS "?x", datoms00.v AS "?v", datoms00.value_type_tag AS "?v_value_type_tag"
func (c *SQLCompiler) compileProjection(projection []queryir.Projected) string {
	var parts []string
	for _, p := range projection {
		parts = append(parts, fmt.Sprintf("%s AS %s", p.Column, quoteIdent(string(p.Variable))))
		if !p.TypeKnown() {
			parts = append(parts, fmt.Sprintf("%s AS %s", p.TagColumn, quoteIdent(tagColumnName(p.Variable))))
		}
	}
	return strings.Join(parts, ", ")
}

// compileFrom lists the sources in join order: clause order, stably sorted
// so that sources with a literal entity come first, then sources with a
// literal attribute.
func compileFrom(sources []queryir.Source) string {
	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b queryir.Source) int {
		return joinRank(a) - joinRank(b)
	})

	parts := make([]string, len(ordered))
	for i, s := range ordered {
		parts[i] = fmt.Sprintf("%s AS %s", s.Table, s.Alias)
	}
	return strings.Join(parts, ", ")
}

func joinRank(s queryir.Source) int {
	switch {
	case s.LiteralEntity:
		return 0
	case s.LiteralAttribute:
		return 1
	default:
		return 2
	}
}

// compileConstraints compiles constraints to a conjunction.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compileConstraints(constraints []queryir.Constraint) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, con := range constraints {
		sql, conArgs, err := c.compileConstraint(con)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, conArgs...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func (c *SQLCompiler) compileConstraint(con queryir.Constraint) (string, []any, error) {
	switch x := con.(type) {
	case queryir.ColumnEquals:
		return fmt.Sprintf("%s = %s", x.Left, x.Right), nil, nil

	case queryir.ValueEquals:
		param, _ := core.ToSQL(x.Value)
		return fmt.Sprintf("%s = ?", x.Column), []any{param}, nil

	case queryir.TagIn:
		tag := queryir.ColumnRef{Alias: x.Alias, Column: queryir.ColumnValueTypeTag}
		args := make([]any, len(x.Tags))
		for i, t := range x.Tags {
			args[i] = int64(t)
		}
		if len(x.Tags) == 1 {
			return fmt.Sprintf("%s = ?", tag), args, nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(x.Tags)), ", ")
		return fmt.Sprintf("%s IN (%s)", tag, marks), args, nil

	case queryir.StorageClass:
		return fmt.Sprintf("typeof(%s) = ?", x.Column), []any{x.Class}, nil

	case queryir.SameStorageClass:
		return fmt.Sprintf("typeof(%s) = typeof(%s)", x.Left, x.Right), nil, nil

	default:
		return "", nil, fmt.Errorf("unsupported constraint type: %T", con)
	}
}

// stableOrderKey returns the ORDER BY list: every result column, ascending.
// MANDATORY: Every query MUST call this function.
func stableOrderKey(columns []Column) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = quoteIdent(col.Name) + " ASC"
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
