package algebrize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/queryir"
	"github.com/roach88/tessera/internal/schema"
)

const (
	personName   core.Entid = schema.PartUserStart
	personAge    core.Entid = schema.PartUserStart + 1
	personFriend core.Entid = schema.PartUserStart + 2
	personHeight core.Entid = schema.PartUserStart + 3
	personStatus core.Entid = schema.PartUserStart + 4
	personTag    core.Entid = schema.PartUserStart + 5
	statusActive core.Entid = schema.PartUserStart + 100
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	triples := schema.BootstrapTriples()
	attr := func(e core.Entid, ident string, a schema.Attribute) {
		triples = append(triples, schema.Triple{E: e, A: schema.DbIdent, V: core.MustParseKeyword(ident)})
		triples = append(triples, schema.AttributeTriples(e, a)...)
	}
	attr(personName, ":person/name", schema.Attribute{ValueType: core.ValueTypeString, Cardinality: schema.CardinalityOne, Unique: schema.UniqueIdentity})
	attr(personAge, ":person/age", schema.Attribute{ValueType: core.ValueTypeLong, Cardinality: schema.CardinalityOne})
	attr(personFriend, ":person/friend", schema.Attribute{ValueType: core.ValueTypeRef, Cardinality: schema.CardinalityMany})
	attr(personHeight, ":person/height", schema.Attribute{ValueType: core.ValueTypeDouble, Cardinality: schema.CardinalityOne})
	attr(personStatus, ":person/status", schema.Attribute{ValueType: core.ValueTypeRef, Cardinality: schema.CardinalityOne})
	attr(personTag, ":person/tag", schema.Attribute{ValueType: core.ValueTypeKeyword, Cardinality: schema.CardinalityMany})
	triples = append(triples, schema.Triple{E: statusActive, A: schema.DbIdent, V: core.MustParseKeyword(":status/active")})

	s, err := schema.FromTriples(triples)
	require.NoError(t, err)
	return s
}

func algebrize(t *testing.T, text string, inputs Inputs) (*queryir.Graph, error) {
	t.Helper()
	q, err := query.Parse(text)
	require.NoError(t, err)
	return Algebrize(testSchema(t), q, inputs)
}

func ref(alias string, c queryir.Column) queryir.ColumnRef {
	return queryir.ColumnRef{Alias: alias, Column: c}
}

func TestAlgebrize_IdentScan(t *testing.T) {
	g, err := algebrize(t, `[:find ?x ?ident :where [?x :db/ident ?ident]]`, nil)
	require.NoError(t, err)

	assert.False(t, g.IsKnownEmpty())
	require.Len(t, g.Sources, 1)
	assert.Equal(t, queryir.Source{
		Alias:            "datoms00",
		Table:            "datoms",
		Clause:           1,
		LiteralAttribute: true,
		Attribute:        schema.DbIdent,
	}, g.Sources[0])

	assert.Equal(t, []queryir.Constraint{
		queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnAttribute), Value: core.Ref(schema.DbIdent)},
	}, g.Constraints)

	assert.Equal(t, []queryir.Projected{
		{Variable: "?x", Column: ref("datoms00", queryir.ColumnEntity), Type: core.ValueTypeRef},
		{Variable: "?ident", Column: ref("datoms00", queryir.ColumnValue), Type: core.ValueTypeKeyword},
	}, g.Projection)
	assert.True(t, queryir.Validate(g).Valid)
}

func TestAlgebrize_LiteralEntity(t *testing.T) {
	g, err := algebrize(t, `[:find ?ident . :where [24 :db/ident ?ident]]`, nil)
	require.NoError(t, err)

	assert.True(t, g.Sources[0].LiteralEntity)
	assert.Equal(t, []queryir.Constraint{
		queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnEntity), Value: core.Ref(24)},
		queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnAttribute), Value: core.Ref(schema.DbIdent)},
	}, g.Constraints)
}

func TestAlgebrize_IdentEntityResolves(t *testing.T) {
	g, err := algebrize(t, `[:find [?index ?cardinality]
	                        :where [:db/txInstant :db/index ?index]
	                               [:db/txInstant :db/cardinality ?cardinality]]`, nil)
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnEntity), Value: core.Ref(schema.DbTxInstant)})
	assert.Contains(t, g.Constraints, queryir.ValueEquals{Column: ref("datoms01", queryir.ColumnEntity), Value: core.Ref(schema.DbTxInstant)})
	assert.Equal(t, core.ValueTypeBoolean, g.KnownTypes["?index"])
	assert.Equal(t, core.ValueTypeRef, g.KnownTypes["?cardinality"])
}

func TestAlgebrize_Join(t *testing.T) {
	g, err := algebrize(t, `[:find ?n :where [?x :person/friend ?y] [?y :person/name ?n]]`, nil)
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ColumnEquals{
		Left:  ref("datoms00", queryir.ColumnValue),
		Right: ref("datoms01", queryir.ColumnEntity),
	})
	assert.Equal(t, core.ValueTypeRef, g.KnownTypes["?y"])
	assert.Equal(t, core.ValueTypeString, g.KnownTypes["?n"])
}

func TestAlgebrize_RepeatedVariableInClause(t *testing.T) {
	g, err := algebrize(t, `[:find ?x :where [?x :person/friend ?x]]`, nil)
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ColumnEquals{
		Left:  ref("datoms00", queryir.ColumnEntity),
		Right: ref("datoms00", queryir.ColumnValue),
	})
}

func TestAlgebrize_ValueLiterals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want core.TypedValue
	}{
		{"string", `[:find ?x :where [?x :person/name "Ada"]]`, core.String("Ada")},
		{"long", `[:find ?x :where [?x :person/age 36]]`, core.Long(36)},
		{"double", `[:find ?x :where [?x :person/height 1.7]]`, core.Double(1.7)},
		{"ref entid", `[:find ?x :where [?x :person/friend 70000]]`, core.Ref(70000)},
		{"ref ident", `[:find ?x :where [?x :person/status :status/active]]`, core.Ref(statusActive)},
		{"keyword", `[:find ?x :where [?x :person/tag :color/red]]`, core.MustParseKeyword(":color/red")},
		{"boolean", `[:find ?x :where [?x :db/fulltext true]]`, core.Boolean(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := algebrize(t, tt.text, nil)
			require.NoError(t, err)
			assert.False(t, g.IsKnownEmpty())
			assert.Contains(t, g.Constraints, queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnValue), Value: tt.want})
		})
	}
}

func TestAlgebrize_KnownEmpty(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		clause int
	}{
		{"entity ident", `[:find ?v :where [:person/nobody :db/doc ?v]]`, 1},
		{"ref value ident", `[:find ?x :where [?x :db/ident _] [?x :person/status :status/gone]]`, 2},
		{"tx ident", `[:find ?x :where [?x :db/ident _ :tx/none]]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := algebrize(t, tt.text, nil)
			require.NoError(t, err)
			require.True(t, g.IsKnownEmpty())
			assert.Equal(t, tt.clause, g.Empty.Clause)
		})
	}
}

func TestAlgebrize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		code     core.ErrorCode
		clause   int
		variable string
	}{
		{"unknown attribute", `[:find ?x :where [?x :db/ident _] [?x :person/nope ?v]]`, core.ErrCodeUnknownAttribute, 2, ""},
		{"ident is not an attribute", `[:find ?x :where [?x :db.type/keyword ?v]]`, core.ErrCodeUnknownAttribute, 1, ""},
		{"entid is not an attribute", `[:find ?x :where [?x 24 ?v]]`, core.ErrCodeUnknownAttribute, 1, ""},
		{"variable narrowed twice", `[:find ?v :where [?x :person/name ?v] [?y :person/age ?v]]`, core.ErrCodeTypeConflict, 2, "?v"},
		{"entity variable used as value", `[:find ?x :where [?x :person/name _] [_ :person/age ?x]]`, core.ErrCodeTypeConflict, 2, "?x"},
		{"string for long", `[:find ?x :where [?x :person/age "old"]]`, core.ErrCodeTypeConflict, 1, ""},
		{"integer for double", `[:find ?x :where [?x :person/height 2]]`, core.ErrCodeTypeConflict, 1, ""},
		{"keyword for string", `[:find ?x :where [?x :person/name :ada]]`, core.ErrCodeTypeConflict, 1, ""},
		{"boolean for ref", `[:find ?x :where [?x :person/friend true]]`, core.ErrCodeTypeConflict, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := algebrize(t, tt.text, nil)
			require.Error(t, err)

			var qe *core.QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.code, qe.Code, err.Error())
			assert.Equal(t, tt.clause, qe.Clause, err.Error())
			assert.Equal(t, tt.variable, qe.Variable, err.Error())
		})
	}
}

func TestAlgebrize_AttributeVariable(t *testing.T) {
	g, err := algebrize(t, `[:find ?a ?v :where [65536 ?a ?v]]`, nil)
	require.NoError(t, err)

	assert.Equal(t, core.ValueTypeRef, g.KnownTypes["?a"])
	_, known := g.KnownTypes["?v"]
	assert.False(t, known)

	require.Len(t, g.Projection, 2)
	assert.True(t, g.Projection[0].TypeKnown())
	assert.False(t, g.Projection[1].TypeKnown())
	assert.Equal(t, ref("datoms00", queryir.ColumnValueTypeTag), g.Projection[1].TagColumn)
	assert.True(t, queryir.Validate(g).Valid)
}

func TestAlgebrize_UntypedValueLiteralConstrainsTag(t *testing.T) {
	tests := []struct {
		name string
		text string
		tags []int
	}{
		{"string", `[:find ?e :where [?e _ "Ada"]]`, []int{core.TagString}},
		{"keyword", `[:find ?e :where [?e _ :color/red]]`, []int{core.TagKeyword}},
		{"integer", `[:find ?e :where [?e ?a 42]]`, []int{core.TagRef, core.TagNumeric}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := algebrize(t, tt.text, nil)
			require.NoError(t, err)
			assert.Contains(t, g.Constraints, queryir.TagIn{Alias: "datoms00", Tags: tt.tags})
		})
	}
}

func TestAlgebrize_TypedVariableInUntypedValue(t *testing.T) {
	g, err := algebrize(t, `[:find ?v :where [?e ?a ?v] [?v :person/name _]]`, nil)
	require.NoError(t, err)

	assert.Equal(t, core.ValueTypeRef, g.KnownTypes["?v"])
	assert.Contains(t, g.Constraints, queryir.TagIn{Alias: "datoms00", Tags: []int{core.TagRef}})

	// Projected from the entity column, whose type the schema guarantees.
	assert.Equal(t, ref("datoms01", queryir.ColumnEntity), g.Projection[0].Column)
}

func TestAlgebrize_UntypedJoinEqualizesTags(t *testing.T) {
	g, err := algebrize(t, `[:find ?v :where [?e ?a ?v] [?f ?b ?v]]`, nil)
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ColumnEquals{
		Left:  ref("datoms00", queryir.ColumnValueTypeTag),
		Right: ref("datoms01", queryir.ColumnValueTypeTag),
	})
	assert.Contains(t, g.Constraints, queryir.SameStorageClass{
		Left:  ref("datoms00", queryir.ColumnValue),
		Right: ref("datoms01", queryir.ColumnValue),
	})
}

func TestAlgebrize_UntypedNumericStorageClass(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		inputs Inputs
		column queryir.ColumnRef
		class  string
	}{
		{"integer literal", `[:find ?e :where [?e ?a 36]]`, nil, ref("datoms00", queryir.ColumnValue), core.StorageInteger},
		{"double constant", `[:find ?e :where [?e ?a 36.0]]`, nil, ref("datoms00", queryir.ColumnValue), core.StorageReal},
		{"long variable", `[:find ?e :where [_ :person/age ?v] [?e ?a ?v]]`, nil, ref("datoms01", queryir.ColumnValue), core.StorageInteger},
		{"long input", `[:find ?e :in ?v :where [?e ?a ?v]]`, Inputs{"?v": core.Long(36)}, ref("datoms00", queryir.ColumnValue), core.StorageInteger},
		{"double input", `[:find ?e :in ?v :where [?e ?a ?v]]`, Inputs{"?v": core.Double(36)}, ref("datoms00", queryir.ColumnValue), core.StorageReal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := algebrize(t, tt.text, tt.inputs)
			require.NoError(t, err)
			assert.Contains(t, g.Constraints, queryir.StorageClass{Column: tt.column, Class: tt.class})
		})
	}
}

func TestAlgebrize_UntypedStringHasNoStorageClass(t *testing.T) {
	g, err := algebrize(t, `[:find ?e :where [?e _ "Ada"]]`, nil)
	require.NoError(t, err)

	for _, c := range g.Constraints {
		_, ok := c.(queryir.StorageClass)
		assert.False(t, ok, "unexpected %v", c)
	}
}

func TestAlgebrize_Inputs(t *testing.T) {
	g, err := algebrize(t, `[:find ?e :in $ ?name :where [?e :person/name ?name]]`,
		Inputs{"?name": core.String("Ada")})
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnValue), Value: core.String("Ada")})
}

func TestAlgebrize_InputKeywordForRef(t *testing.T) {
	g, err := algebrize(t, `[:find ?v :in ?e :where [?e :db/doc ?v]]`,
		Inputs{"?e": core.MustParseKeyword(":db/ident")})
	require.NoError(t, err)

	assert.Contains(t, g.Constraints, queryir.ValueEquals{Column: ref("datoms00", queryir.ColumnEntity), Value: core.Ref(schema.DbIdent)})

	g, err = algebrize(t, `[:find ?v :in ?e :where [?e :db/doc ?v]]`,
		Inputs{"?e": core.MustParseKeyword(":no/such")})
	require.NoError(t, err)
	assert.True(t, g.IsKnownEmpty())
}

func TestAlgebrize_InputTypesAttributeVariableValue(t *testing.T) {
	g, err := algebrize(t, `[:find ?e :in ?v :where [?e ?a ?v]]`, Inputs{"?v": core.Long(36)})
	require.NoError(t, err)

	assert.Equal(t, core.ValueTypeLong, g.KnownTypes["?v"])
	assert.Contains(t, g.Constraints, queryir.TagIn{Alias: "datoms00", Tags: []int{core.TagNumeric}})
}

func TestAlgebrize_InputErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		inputs Inputs
		code   core.ErrorCode
	}{
		{"undeclared", `[:find ?e :where [?e :person/name ?n]]`, Inputs{"?n": core.String("x")}, core.ErrCodeInvalidInput},
		{"missing", `[:find ?e :in ?n :where [?e :person/name ?n]]`, nil, core.ErrCodeInvalidInput},
		{"nil value", `[:find ?e :in ?n :where [?e :person/name ?n]]`, Inputs{"?n": nil}, core.ErrCodeInvalidInput},
		{"wrong type", `[:find ?e :in ?n :where [?e :person/name ?n]]`, Inputs{"?n": core.Long(1)}, core.ErrCodeTypeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := algebrize(t, tt.text, tt.inputs)
			require.Error(t, err)
			assert.True(t, core.IsCode(err, tt.code), err.Error())
		})
	}
}
