package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
)

// identGraph is the graph of [:find ?x ?ident :where [?x :db/ident ?ident]].
func identGraph() *Graph {
	g := NewGraph(query.FindRel{Variables: []query.Variable{"?x", "?ident"}})
	g.Sources = []Source{{Alias: "datoms00", Table: DatomsTable, Clause: 1, LiteralAttribute: true, Attribute: 1}}
	g.Constraints = []Constraint{
		ValueEquals{Column: ColumnRef{"datoms00", ColumnAttribute}, Value: core.Ref(1)},
	}
	g.Bindings["?x"] = []ColumnRef{{"datoms00", ColumnEntity}}
	g.Bindings["?ident"] = []ColumnRef{{"datoms00", ColumnValue}}
	g.KnownTypes["?x"] = core.ValueTypeRef
	g.KnownTypes["?ident"] = core.ValueTypeKeyword
	g.Projection = []Projected{
		{Variable: "?x", Column: ColumnRef{"datoms00", ColumnEntity}, Type: core.ValueTypeRef},
		{Variable: "?ident", Column: ColumnRef{"datoms00", ColumnValue}, Type: core.ValueTypeKeyword},
	}
	return g
}

func TestValidate_WellFormedGraph(t *testing.T) {
	result := Validate(identGraph())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_UnknownTypeNeedsTagColumn(t *testing.T) {
	g := NewGraph(query.FindColl{Variable: "?v"})
	g.Sources = []Source{{Alias: "datoms00", Table: DatomsTable, Clause: 1}}
	g.Bindings["?v"] = []ColumnRef{{"datoms00", ColumnValue}}
	g.Projection = []Projected{{Variable: "?v", Column: ColumnRef{"datoms00", ColumnValue}}}

	result := Validate(g)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems, "?v has unknown type but no tag column")

	g.Projection[0].TagColumn = ColumnRef{"datoms00", ColumnValueTypeTag}
	assert.True(t, Validate(g).Valid)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Graph)
		problem string
	}{
		{
			name: "no sources",
			mutate: func(g *Graph) {
				g.Sources = nil
				g.Constraints = nil
			},
			problem: "graph has no sources",
		},
		{
			name: "duplicate alias",
			mutate: func(g *Graph) {
				g.Sources = append(g.Sources, g.Sources[0])
			},
			problem: "duplicate source alias datoms00",
		},
		{
			name: "dangling join",
			mutate: func(g *Graph) {
				g.Constraints = append(g.Constraints, ColumnEquals{
					Left:  ColumnRef{"datoms00", ColumnEntity},
					Right: ColumnRef{"datoms09", ColumnEntity},
				})
			},
			problem: "constraint 1: unknown source datoms09",
		},
		{
			name: "nil value",
			mutate: func(g *Graph) {
				g.Constraints = append(g.Constraints, ValueEquals{Column: ColumnRef{"datoms00", ColumnValue}})
			},
			problem: "constraint 1: nil value for datoms00.v",
		},
		{
			name: "empty tag set",
			mutate: func(g *Graph) {
				g.Constraints = append(g.Constraints, TagIn{Alias: "datoms00"})
			},
			problem: "constraint 1: empty tag set for datoms00",
		},
		{
			name: "empty storage class",
			mutate: func(g *Graph) {
				g.Constraints = append(g.Constraints, StorageClass{Column: ColumnRef{"datoms00", ColumnValue}})
			},
			problem: "constraint 1: empty storage class for datoms00.v",
		},
		{
			name: "dangling storage class join",
			mutate: func(g *Graph) {
				g.Constraints = append(g.Constraints, SameStorageClass{
					Left:  ColumnRef{"datoms00", ColumnValue},
					Right: ColumnRef{"datoms03", ColumnValue},
				})
			},
			problem: "constraint 1: unknown source datoms03",
		},
		{
			name: "projection out of order",
			mutate: func(g *Graph) {
				g.Projection[0], g.Projection[1] = g.Projection[1], g.Projection[0]
			},
			problem: "projection [?ident ?x] does not match find variables [?x ?ident]",
		},
		{
			name: "unbound projection",
			mutate: func(g *Graph) {
				delete(g.Bindings, "?ident")
			},
			problem: "projected variable ?ident is not bound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := identGraph()
			tt.mutate(g)

			result := Validate(g)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Problems, tt.problem)
		})
	}
}

func TestValidate_NilGraph(t *testing.T) {
	result := Validate(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"nil graph"}, result.Problems)
}
