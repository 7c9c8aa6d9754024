// Package query defines the query AST and parses EDN query text into it.
//
// A query has a find-spec, optional :in variables and an ordered list of
// where-clause patterns. The parser checks syntax and variable hygiene
// (duplicate find or :in variables, find variables no clause binds); it does
// not consult the schema. Name resolution and typing happen in algebrize.
package query

import (
	"strconv"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/edn"
)

// Variable is a query variable including its leading '?', e.g. "?x".
type Variable string

func (Variable) place() {}

// DefaultSource is the implicit source of every pattern.
const DefaultSource = "$"

// FindSpec is the shape of the result.
//
// This is a sealed interface - only FindRel, FindScalar, FindTuple and
// FindColl implement it.
type FindSpec interface {
	findSpec() // Marker method - seals interface to this package
}

// FindRel is `:find ?a ?b ...`: a relation of rows.
type FindRel struct {
	Variables []Variable
}

// FindScalar is `:find ?a .`: a single value.
type FindScalar struct {
	Variable Variable
}

// FindTuple is `:find [?a ?b]`: a single row.
type FindTuple struct {
	Variables []Variable
}

// FindColl is `:find [?a ...]`: the values of one variable.
type FindColl struct {
	Variable Variable
}

func (FindRel) findSpec()    {}
func (FindScalar) findSpec() {}
func (FindTuple) findSpec()  {}
func (FindColl) findSpec()   {}

// FindVariables returns the variables of a find-spec in projection order.
func FindVariables(spec FindSpec) []Variable {
	switch f := spec.(type) {
	case FindRel:
		return f.Variables
	case FindScalar:
		return []Variable{f.Variable}
	case FindTuple:
		return f.Variables
	case FindColl:
		return []Variable{f.Variable}
	default:
		return nil
	}
}

// Place is one slot of a pattern.
//
// This is a sealed interface. Implementations: Variable, Placeholder,
// IdentLiteral, IntegerLiteral and Constant.
type Place interface {
	place() // Marker method - seals interface to this package
}

// Placeholder is the wildcard `_`.
type Placeholder struct{}

// IdentLiteral is a keyword in a pattern. In the attribute slot it names an
// attribute; in the entity or tx slot it names an entity; in the value slot
// its meaning depends on the attribute's value type.
type IdentLiteral struct {
	Ident core.Keyword
}

// IntegerLiteral is an integer in a pattern: an entid in the entity,
// attribute and tx slots; a long or ref in the value slot.
type IntegerLiteral struct {
	Value int64
}

// Constant is any other literal value (string, boolean, double, instant,
// uuid). Constants are only valid in the value slot.
type Constant struct {
	Value core.TypedValue
}

func (Placeholder) place()    {}
func (IdentLiteral) place()   {}
func (IntegerLiteral) place() {}
func (Constant) place()       {}

// FormatPlace renders a place as it would appear in query text.
func FormatPlace(p Place) string {
	switch x := p.(type) {
	case Variable:
		return string(x)
	case Placeholder:
		return "_"
	case IdentLiteral:
		return x.Ident.String()
	case IntegerLiteral:
		return strconv.FormatInt(x.Value, 10)
	case Constant:
		return core.Format(x.Value)
	default:
		return "?"
	}
}

// Pattern is a where-clause `[e a v]` or `[e a v tx]`.
type Pattern struct {
	// Clause is the 1-based position of the pattern in :where.
	Clause int

	// Pos is where the pattern starts in the query text.
	Pos edn.Pos

	Source string
	E      Place
	A      Place
	V      Place
	Tx     Place
}

// Places returns the four slots in e, a, v, tx order.
func (p Pattern) Places() [4]Place {
	return [4]Place{p.E, p.A, p.V, p.Tx}
}

// Variables returns the distinct variables of the pattern in slot order.
func (p Pattern) Variables() []Variable {
	var vars []Variable
	seen := make(map[Variable]bool)
	for _, pl := range p.Places() {
		if v, ok := pl.(Variable); ok && !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	return vars
}

// Query is a parsed query.
type Query struct {
	Find  FindSpec
	In    []Variable
	Where []Pattern
}

// BoundVariables returns every variable some pattern binds.
func (q *Query) BoundVariables() map[Variable]bool {
	bound := make(map[Variable]bool)
	for _, p := range q.Where {
		for _, v := range p.Variables() {
			bound[v] = true
		}
	}
	return bound
}
