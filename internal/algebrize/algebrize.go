// Package algebrize turns a parsed query into a constraint graph.
//
// Algebrizing resolves idents against a schema snapshot, infers the value
// type of every variable and records joins and literal filters. It never
// touches the store: unknown attributes and type conflicts are reported
// here, before any SQL exists, and queries that provably match nothing are
// marked known-empty.
package algebrize

import (
	"slices"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/queryir"
	"github.com/roach88/tessera/internal/schema"
)

// Inputs binds :in variables to values.
type Inputs map[query.Variable]core.TypedValue

// Algebrize builds the constraint graph of q against s.
//
// Every error is a *core.QueryError with code UNKNOWN_ATTRIBUTE,
// TYPE_CONFLICT, UNBOUND_FIND_VARIABLE or INVALID_INPUT.
func Algebrize(s *schema.Schema, q *query.Query, inputs Inputs) (*queryir.Graph, error) {
	if err := checkInputs(q, inputs); err != nil {
		return nil, err
	}

	a := &algebrizer{schema: s, graph: queryir.NewGraph(q.Find)}
	for i, p := range q.Where {
		if err := a.addPattern(i, p); err != nil {
			return nil, err
		}
	}
	if err := a.applyInputs(q.In, inputs); err != nil {
		return nil, err
	}
	a.constrainTags()
	if err := a.project(); err != nil {
		return nil, err
	}
	return a.graph, nil
}

type algebrizer struct {
	schema *schema.Schema
	graph  *queryir.Graph
}

func (a *algebrizer) addPattern(i int, p query.Pattern) error {
	alias := queryir.SourceAlias(i)
	col := func(c queryir.Column) queryir.ColumnRef {
		return queryir.ColumnRef{Alias: alias, Column: c}
	}
	src := queryir.Source{Alias: alias, Table: queryir.DatomsTable, Clause: p.Clause}

	attrEntid, attr, err := a.resolveAttribute(p)
	if err != nil {
		return err
	}
	if attr != nil {
		src.LiteralAttribute = true
		src.Attribute = attrEntid
	}
	switch p.E.(type) {
	case query.IdentLiteral, query.IntegerLiteral:
		src.LiteralEntity = true
	}
	a.graph.Sources = append(a.graph.Sources, src)

	if err := a.addRefPlace(p.E, col(queryir.ColumnEntity), p.Clause, "entity"); err != nil {
		return err
	}

	switch v := p.A.(type) {
	case query.Variable:
		if err := a.bindTyped(v, col(queryir.ColumnAttribute), core.ValueTypeRef, p.Clause); err != nil {
			return err
		}
	case query.IdentLiteral, query.IntegerLiteral:
		a.filter(col(queryir.ColumnAttribute), core.Ref(attrEntid))
	}

	if err := a.addValuePlace(p.V, col(queryir.ColumnValue), attr, p.Clause); err != nil {
		return err
	}

	return a.addRefPlace(p.Tx, col(queryir.ColumnTx), p.Clause, "transaction")
}

// resolveAttribute returns the attribute named by a literal attribute slot,
// or a nil Attribute for a variable or placeholder.
func (a *algebrizer) resolveAttribute(p query.Pattern) (core.Entid, *schema.Attribute, error) {
	switch x := p.A.(type) {
	case query.IdentLiteral:
		e, attr, ok := a.schema.AttributeFor(x.Ident)
		if !ok {
			return 0, nil, core.Errorf(core.ErrCodeUnknownAttribute, "unknown attribute %s", x.Ident).AtClause(p.Clause)
		}
		return e, &attr, nil
	case query.IntegerLiteral:
		e := core.Entid(x.Value)
		attr, ok := a.schema.Attribute(e)
		if !ok {
			return 0, nil, core.Errorf(core.ErrCodeUnknownAttribute, "entid %d is not an attribute", x.Value).AtClause(p.Clause)
		}
		return e, &attr, nil
	case query.Variable, query.Placeholder:
		return 0, nil, nil
	default:
		return 0, nil, core.Errorf(core.ErrCodeTypeConflict, "%s cannot name an attribute", query.FormatPlace(p.A)).AtClause(p.Clause)
	}
}

// addRefPlace handles the entity and transaction slots, which always hold
// entids.
func (a *algebrizer) addRefPlace(place query.Place, ref queryir.ColumnRef, clause int, role string) error {
	switch x := place.(type) {
	case query.Variable:
		return a.bindTyped(x, ref, core.ValueTypeRef, clause)
	case query.IdentLiteral:
		e, ok := a.schema.Entid(x.Ident)
		if !ok {
			a.graph.MarkEmpty(clause, "%s %s does not resolve", role, x.Ident)
			return nil
		}
		a.filter(ref, core.Ref(e))
	case query.IntegerLiteral:
		a.filter(ref, core.Ref(x.Value))
	case query.Placeholder:
	default:
		return core.Errorf(core.ErrCodeTypeConflict, "%s %s is not an entity", role, query.FormatPlace(place)).AtClause(clause)
	}
	return nil
}

func (a *algebrizer) addValuePlace(place query.Place, ref queryir.ColumnRef, attr *schema.Attribute, clause int) error {
	if attr == nil {
		return a.addUntypedValue(place, ref)
	}

	switch x := place.(type) {
	case query.Variable:
		return a.bindTyped(x, ref, attr.ValueType, clause)

	case query.Placeholder:
		return nil

	case query.IdentLiteral:
		switch attr.ValueType {
		case core.ValueTypeRef:
			e, ok := a.schema.Entid(x.Ident)
			if !ok {
				a.graph.MarkEmpty(clause, "value %s does not resolve", x.Ident)
				return nil
			}
			a.filter(ref, core.Ref(e))
		case core.ValueTypeKeyword:
			a.filter(ref, x.Ident)
		default:
			return valueConflict(place, attr.ValueType, clause)
		}

	case query.IntegerLiteral:
		switch attr.ValueType {
		case core.ValueTypeRef:
			a.filter(ref, core.Ref(x.Value))
		case core.ValueTypeLong:
			a.filter(ref, core.Long(x.Value))
		default:
			return valueConflict(place, attr.ValueType, clause)
		}

	case query.Constant:
		if !core.MatchesType(x.Value, attr.ValueType) {
			return valueConflict(place, attr.ValueType, clause)
		}
		a.filter(ref, x.Value)
	}
	return nil
}

// addUntypedValue handles the value slot when the attribute is not known
// until run time. Literals also constrain the row's value_type_tag, and
// numeric literals its storage class.
func (a *algebrizer) addUntypedValue(place query.Place, ref queryir.ColumnRef) error {
	switch x := place.(type) {
	case query.Variable:
		a.bind(x, ref)
	case query.IdentLiteral:
		a.filter(ref, x.Ident)
		a.tags(ref.Alias, core.TagKeyword)
	case query.IntegerLiteral:
		a.filter(ref, core.Long(x.Value))
		a.tags(ref.Alias, core.TagRef, core.TagNumeric)
		a.storageClass(ref, core.StorageInteger)
	case query.Constant:
		a.filter(ref, x.Value)
		a.tags(ref.Alias, x.Value.ValueType().Tag())
		a.storageClass(ref, core.NumericStorageClass(x.Value.ValueType()))
	}
	return nil
}

func valueConflict(place query.Place, t core.ValueType, clause int) error {
	return core.Errorf(core.ErrCodeTypeConflict, "value %s does not match attribute type %s",
		query.FormatPlace(place), t).AtClause(clause)
}

func (a *algebrizer) bindTyped(v query.Variable, ref queryir.ColumnRef, t core.ValueType, clause int) error {
	if err := a.narrow(v, t, clause); err != nil {
		return err
	}
	a.bind(v, ref)
	return nil
}

// bind records that v occupies ref. A variable seen before is joined to its
// canonical column.
func (a *algebrizer) bind(v query.Variable, ref queryir.ColumnRef) {
	refs := a.graph.Bindings[v]
	if len(refs) > 0 {
		a.graph.Constraints = append(a.graph.Constraints, queryir.ColumnEquals{Left: refs[0], Right: ref})
	}
	a.graph.Bindings[v] = append(refs, ref)
}

// narrow fixes the type of v. Types only ever narrow: a second, different
// type is a conflict.
func (a *algebrizer) narrow(v query.Variable, t core.ValueType, clause int) error {
	if known, ok := a.graph.KnownTypes[v]; ok && known != t {
		err := core.Errorf(core.ErrCodeTypeConflict, "%s is both %s and %s", v, known, t).ForVariable(string(v))
		if clause > 0 {
			err.AtClause(clause)
		}
		return err
	}
	a.graph.KnownTypes[v] = t
	return nil
}

func (a *algebrizer) filter(ref queryir.ColumnRef, v core.TypedValue) {
	a.graph.Constraints = append(a.graph.Constraints, queryir.ValueEquals{Column: ref, Value: v})
}

func (a *algebrizer) tags(alias string, tags ...int) {
	a.graph.Constraints = append(a.graph.Constraints, queryir.TagIn{Alias: alias, Tags: tags})
}

// storageClass pins the storage class of ref. An empty class adds nothing.
func (a *algebrizer) storageClass(ref queryir.ColumnRef, class string) {
	if class == "" {
		return
	}
	a.graph.Constraints = append(a.graph.Constraints, queryir.StorageClass{Column: ref, Class: class})
}

// constrainTags pins the value_type_tag of untyped value columns. A variable
// whose type is known gets that type's tag on every such column, plus its
// storage class when the type is long or double. A variable of unknown type
// joined across several such columns gets equal tags and storage classes, so
// that a long never joins a ref or a double with the same number.
func (a *algebrizer) constrainTags() {
	g := a.graph
	for _, src := range g.Sources {
		if src.LiteralAttribute {
			continue
		}
		value := queryir.ColumnRef{Alias: src.Alias, Column: queryir.ColumnValue}
		for _, v := range a.variablesAt(value) {
			refs := g.Bindings[v]
			if t, ok := g.KnownTypes[v]; ok {
				a.tags(src.Alias, t.Tag())
				a.storageClass(value, core.NumericStorageClass(t))
				continue
			}
			if refs[0] != value {
				g.Constraints = append(g.Constraints,
					queryir.ColumnEquals{
						Left:  queryir.ColumnRef{Alias: refs[0].Alias, Column: queryir.ColumnValueTypeTag},
						Right: queryir.ColumnRef{Alias: src.Alias, Column: queryir.ColumnValueTypeTag},
					},
					queryir.SameStorageClass{Left: refs[0], Right: value},
				)
			}
		}
	}
}

// variablesAt returns the variables bound to ref, sorted by name.
func (a *algebrizer) variablesAt(ref queryir.ColumnRef) []query.Variable {
	var vars []query.Variable
	for v, refs := range a.graph.Bindings {
		if slices.Contains(refs, ref) {
			vars = append(vars, v)
		}
	}
	slices.Sort(vars)
	return vars
}

// project resolves each find variable to the column it is read from.
// A typed variable prefers a column whose type the schema guarantees.
func (a *algebrizer) project() error {
	g := a.graph
	for _, v := range query.FindVariables(g.Find) {
		refs := g.Bindings[v]
		if len(refs) == 0 {
			return core.Errorf(core.ErrCodeUnboundFindVariable,
				"find variable %s is not bound by any where-clause", v).ForVariable(string(v))
		}

		t, known := g.KnownTypes[v]
		if !known {
			g.Projection = append(g.Projection, queryir.Projected{
				Variable:  v,
				Column:    refs[0],
				TagColumn: queryir.ColumnRef{Alias: refs[0].Alias, Column: queryir.ColumnValueTypeTag},
			})
			continue
		}

		column := refs[0]
		for _, ref := range refs {
			if a.typedColumn(ref) {
				column = ref
				break
			}
		}
		g.Projection = append(g.Projection, queryir.Projected{Variable: v, Column: column, Type: t})
	}
	return nil
}

// typedColumn reports whether every value in ref has a schema-determined
// type: entity, attribute and tx columns, and value columns of a literal
// attribute.
func (a *algebrizer) typedColumn(ref queryir.ColumnRef) bool {
	if ref.Column != queryir.ColumnValue {
		return true
	}
	src, ok := a.graph.Source(ref.Alias)
	return ok && src.LiteralAttribute
}
