package algebrize

import (
	"slices"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/query"
)

// checkInputs verifies that inputs and the :in clause agree exactly.
func checkInputs(q *query.Query, inputs Inputs) error {
	declared := make(map[query.Variable]bool, len(q.In))
	for _, v := range q.In {
		declared[v] = true
	}

	names := make([]query.Variable, 0, len(inputs))
	for v := range inputs {
		names = append(names, v)
	}
	slices.Sort(names)

	for _, v := range names {
		if !declared[v] {
			return core.Errorf(core.ErrCodeInvalidInput, "input %s is not declared in :in", v).ForVariable(string(v))
		}
		if inputs[v] == nil {
			return core.Errorf(core.ErrCodeInvalidInput, "input %s has no value", v).ForVariable(string(v))
		}
	}
	for _, v := range q.In {
		if _, ok := inputs[v]; !ok {
			return core.Errorf(core.ErrCodeInvalidInput, "no value for :in variable %s", v).ForVariable(string(v))
		}
	}
	return nil
}

// applyInputs turns each input into a literal filter on the variable's
// canonical column. A keyword bound to a ref-typed variable is an ident and
// resolves through the schema. Inputs for variables no clause uses are
// ignored.
func (a *algebrizer) applyInputs(in []query.Variable, inputs Inputs) error {
	for _, v := range in {
		refs := a.graph.Bindings[v]
		if len(refs) == 0 {
			continue
		}

		value := inputs[v]
		if kw, ok := value.(core.Keyword); ok && a.graph.KnownTypes[v] == core.ValueTypeRef {
			e, ok := a.schema.Entid(kw)
			if !ok {
				a.graph.MarkEmpty(0, "input %s: ident %s does not resolve", v, kw)
				continue
			}
			value = core.Ref(e)
		}

		if err := a.narrow(v, value.ValueType(), 0); err != nil {
			return err
		}
		a.filter(refs[0], value)
	}
	return nil
}
