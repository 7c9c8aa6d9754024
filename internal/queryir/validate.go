package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/tessera/internal/query"
)

// ValidationResult lists structural problems found in a graph.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each broken invariant.
	Problems []string
}

// Validate checks the structural invariants backends rely on:
//  1. Every column reference names a source of the graph
//  2. Constraints carry a value (ValueEquals), at least one tag (TagIn)
//     or a storage class (StorageClass)
//  3. The projection lists exactly the find variables, in order
//  4. Every projected variable is bound, and a variable of unknown type
//     is projected from a value column with its tag column
//
// Validate is a pure function with no side effects.
func Validate(g *Graph) ValidationResult {
	v := &validator{graph: g}
	v.validate()
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	graph    *Graph
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate() {
	g := v.graph
	if g == nil {
		v.addProblem("nil graph")
		return
	}
	if g.Find == nil {
		v.addProblem("graph has no find-spec")
	}
	if len(g.Sources) == 0 {
		v.addProblem("graph has no sources")
	}

	aliases := make(map[string]bool, len(g.Sources))
	for _, s := range g.Sources {
		if aliases[s.Alias] {
			v.addProblem("duplicate source alias %s", s.Alias)
		}
		aliases[s.Alias] = true
	}

	for i, c := range g.Constraints {
		v.validateConstraint(i, c, aliases)
	}

	for variable, refs := range g.Bindings {
		for _, ref := range refs {
			v.checkRef(ref, aliases, "binding of %s", variable)
		}
	}

	v.validateProjection(aliases)
}

func (v *validator) validateConstraint(i int, c Constraint, aliases map[string]bool) {
	switch con := c.(type) {
	case ColumnEquals:
		v.checkRef(con.Left, aliases, "constraint %d", i)
		v.checkRef(con.Right, aliases, "constraint %d", i)
	case ValueEquals:
		v.checkRef(con.Column, aliases, "constraint %d", i)
		if con.Value == nil {
			v.addProblem("constraint %d: nil value for %s", i, con.Column)
		}
	case TagIn:
		if !aliases[con.Alias] {
			v.addProblem("constraint %d: unknown source %s", i, con.Alias)
		}
		if len(con.Tags) == 0 {
			v.addProblem("constraint %d: empty tag set for %s", i, con.Alias)
		}
	case StorageClass:
		v.checkRef(con.Column, aliases, "constraint %d", i)
		if con.Class == "" {
			v.addProblem("constraint %d: empty storage class for %s", i, con.Column)
		}
	case SameStorageClass:
		v.checkRef(con.Left, aliases, "constraint %d", i)
		v.checkRef(con.Right, aliases, "constraint %d", i)
	default:
		v.addProblem("constraint %d: unknown constraint type %T", i, c)
	}
}

func (v *validator) validateProjection(aliases map[string]bool) {
	g := v.graph
	if g.Find == nil {
		return
	}
	want := query.FindVariables(g.Find)
	got := make([]query.Variable, len(g.Projection))
	for i, p := range g.Projection {
		got[i] = p.Variable
	}
	if !slices.Equal(want, got) {
		v.addProblem("projection %v does not match find variables %v", got, want)
	}

	for _, p := range g.Projection {
		if len(g.Bindings[p.Variable]) == 0 {
			v.addProblem("projected variable %s is not bound", p.Variable)
		}
		v.checkRef(p.Column, aliases, "projection of %s", p.Variable)
		if p.TypeKnown() {
			continue
		}
		if p.Column.Column != ColumnValue {
			v.addProblem("%s has unknown type but is projected from %s", p.Variable, p.Column)
		}
		if p.TagColumn != (ColumnRef{Alias: p.Column.Alias, Column: ColumnValueTypeTag}) {
			v.addProblem("%s has unknown type but no tag column", p.Variable)
		}
	}
}

func (v *validator) checkRef(ref ColumnRef, aliases map[string]bool, context string, args ...any) {
	if !aliases[ref.Alias] {
		v.addProblem("%s: unknown source %s", fmt.Sprintf(context, args...), ref.Alias)
	}
}
