package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/edn"
)

// Parse parses query text in vector form `[:find … :in … :where …]` or map
// form `{:find […] :in […] :where […]}`.
//
// Every error is a *core.QueryError: ErrCodeParse for malformed text or
// structure, ErrCodeUnboundFindVariable when a find variable appears in no
// where-clause.
func Parse(text string) (*Query, error) {
	form, err := edn.Read(text)
	if err != nil {
		var se *edn.SyntaxError
		if errors.As(err, &se) {
			return nil, &core.QueryError{Code: core.ErrCodeParse, Message: "invalid EDN", Err: se}
		}
		return nil, err
	}
	return ParseForm(form)
}

// ParseForm parses an already-read EDN form.
func ParseForm(form edn.Value) (*Query, error) {
	sections, err := splitSections(form)
	if err != nil {
		return nil, err
	}

	find, ok := sections["find"]
	if !ok {
		return nil, parseErrorf(form.Position(), "query has no :find")
	}
	where, ok := sections["where"]
	if !ok {
		return nil, parseErrorf(form.Position(), "query has no :where")
	}

	q := &Query{}
	if q.Find, err = parseFind(find); err != nil {
		return nil, err
	}
	if in, ok := sections["in"]; ok {
		if q.In, err = parseIn(in); err != nil {
			return nil, err
		}
	}
	if q.Where, err = parseWhere(where); err != nil {
		return nil, err
	}

	bound := q.BoundVariables()
	for _, v := range FindVariables(q.Find) {
		if !bound[v] {
			return nil, core.Errorf(core.ErrCodeUnboundFindVariable,
				"find variable %s is not bound by any where-clause", v).ForVariable(string(v))
		}
	}
	return q, nil
}

// section is the body of one :find, :in or :where section.
type section struct {
	pos   edn.Pos
	items []edn.Value
}

var knownSections = map[string]bool{"find": true, "in": true, "where": true}

func splitSections(form edn.Value) (map[string]section, error) {
	sections := make(map[string]section)
	add := func(kw edn.Keyword, s section) error {
		name := kw.Value.Name
		if kw.Value.IsNamespaced() || !knownSections[name] {
			return parseErrorf(kw.Position(), "unsupported query section %s", kw.Value)
		}
		if _, dup := sections[name]; dup {
			return parseErrorf(kw.Position(), "duplicate query section %s", kw.Value)
		}
		sections[name] = s
		return nil
	}

	switch f := form.(type) {
	case edn.Vector:
		var (
			current edn.Keyword
			body    section
			started bool
		)
		for _, item := range f.Items {
			if kw, ok := item.(edn.Keyword); ok {
				if started {
					if err := add(current, body); err != nil {
						return nil, err
					}
				}
				current, body, started = kw, section{pos: kw.Position()}, true
				continue
			}
			if !started {
				return nil, parseErrorf(item.Position(), "expected :find, got %s", edn.Describe(item))
			}
			body.items = append(body.items, item)
		}
		if started {
			if err := add(current, body); err != nil {
				return nil, err
			}
		}
	case edn.Map:
		for _, e := range f.Entries {
			kw, ok := e.Key.(edn.Keyword)
			if !ok {
				return nil, parseErrorf(e.Key.Position(), "query map keys must be keywords, got %s", edn.Describe(e.Key))
			}
			vec, ok := e.Value.(edn.Vector)
			if !ok {
				return nil, parseErrorf(e.Value.Position(), "%s must be a vector, got %s", kw.Value, edn.Describe(e.Value))
			}
			if err := add(kw, section{pos: vec.Position(), items: vec.Items}); err != nil {
				return nil, err
			}
		}
	default:
		return nil, parseErrorf(form.Position(), "query must be a vector or map, got %s", edn.Describe(form))
	}
	return sections, nil
}

func parseFind(s section) (FindSpec, error) {
	items := s.items
	switch {
	case len(items) == 0:
		return nil, parseErrorf(s.pos, "empty find-spec")

	case len(items) == 1 && isVector(items[0]):
		inner := items[0].(edn.Vector)
		if len(inner.Items) == 2 && isSymbol(inner.Items[1], "...") {
			v, err := parseFindVariable(inner.Items[0])
			if err != nil {
				return nil, err
			}
			return FindColl{Variable: v}, nil
		}
		if len(inner.Items) == 0 {
			return nil, parseErrorf(inner.Position(), "empty tuple find-spec")
		}
		vars, err := parseFindVariables(inner.Items)
		if err != nil {
			return nil, err
		}
		return FindTuple{Variables: vars}, nil

	case len(items) == 2 && isSymbol(items[1], "."):
		v, err := parseFindVariable(items[0])
		if err != nil {
			return nil, err
		}
		return FindScalar{Variable: v}, nil

	default:
		vars, err := parseFindVariables(items)
		if err != nil {
			return nil, err
		}
		return FindRel{Variables: vars}, nil
	}
}

func parseFindVariables(items []edn.Value) ([]Variable, error) {
	vars := make([]Variable, 0, len(items))
	seen := make(map[Variable]bool)
	for _, item := range items {
		v, err := parseFindVariable(item)
		if err != nil {
			return nil, err
		}
		if seen[v] {
			return nil, parseErrorf(item.Position(), "variable %s appears twice in find-spec", v).ForVariable(string(v))
		}
		seen[v] = true
		vars = append(vars, v)
	}
	return vars, nil
}

func parseFindVariable(item edn.Value) (Variable, error) {
	switch x := item.(type) {
	case edn.Symbol:
		if v, ok := asVariable(x); ok {
			return v, nil
		}
		return "", parseErrorf(x.Position(), "malformed find-spec: unexpected %s", x.Name)
	case edn.List:
		return "", parseErrorf(x.Position(), "aggregates and pull expressions are not supported in find-spec")
	default:
		return "", parseErrorf(item.Position(), "malformed find-spec: expected a variable, got %s", edn.Describe(item))
	}
}

func parseIn(s section) ([]Variable, error) {
	var vars []Variable
	seen := make(map[Variable]bool)
	for _, item := range s.items {
		sym, ok := item.(edn.Symbol)
		if !ok {
			return nil, parseErrorf(item.Position(), "unsupported :in binding %s", edn.Describe(item))
		}
		if sym.Name == DefaultSource {
			continue
		}
		v, ok := asVariable(sym)
		if !ok {
			return nil, parseErrorf(sym.Position(), "unsupported :in binding %s", sym.Name)
		}
		if seen[v] {
			return nil, parseErrorf(sym.Position(), "variable %s appears twice in :in", v).ForVariable(string(v))
		}
		seen[v] = true
		vars = append(vars, v)
	}
	return vars, nil
}

func parseWhere(s section) ([]Pattern, error) {
	if len(s.items) == 0 {
		return nil, parseErrorf(s.pos, "empty :where")
	}
	patterns := make([]Pattern, 0, len(s.items))
	for i, item := range s.items {
		clause := i + 1
		switch x := item.(type) {
		case edn.Vector:
			p, err := parsePattern(x, clause)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, p)
		case edn.List:
			if len(x.Items) > 0 {
				if head, ok := x.Items[0].(edn.Symbol); ok {
					switch head.Name {
					case "not", "not-join", "or", "or-join":
						return nil, parseErrorf(x.Position(), "%s clauses are not supported", head.Name).AtClause(clause)
					}
				}
			}
			return nil, parseErrorf(x.Position(), "rule invocations are not supported").AtClause(clause)
		default:
			return nil, parseErrorf(item.Position(), "expected a clause, got %s", edn.Describe(item)).AtClause(clause)
		}
	}
	return patterns, nil
}

func parsePattern(vec edn.Vector, clause int) (Pattern, error) {
	items := vec.Items
	p := Pattern{Clause: clause, Pos: vec.Position(), Source: DefaultSource}

	if len(items) > 0 {
		switch head := items[0].(type) {
		case edn.List:
			return Pattern{}, parseErrorf(head.Position(), "predicate and function clauses are not supported").AtClause(clause)
		case edn.Symbol:
			if strings.HasPrefix(head.Name, "$") {
				if head.Name != DefaultSource {
					return Pattern{}, parseErrorf(head.Position(), "unknown source %s", head.Name).AtClause(clause)
				}
				items = items[1:]
			}
		}
	}

	if len(items) != 3 && len(items) != 4 {
		return Pattern{}, parseErrorf(vec.Position(), "pattern must have 3 or 4 elements, got %d", len(items)).AtClause(clause)
	}

	var err error
	if p.E, err = parsePlace(items[0], slotEntity, clause); err != nil {
		return Pattern{}, err
	}
	if p.A, err = parsePlace(items[1], slotAttribute, clause); err != nil {
		return Pattern{}, err
	}
	if p.V, err = parsePlace(items[2], slotValue, clause); err != nil {
		return Pattern{}, err
	}
	p.Tx = Placeholder{}
	if len(items) == 4 {
		if p.Tx, err = parsePlace(items[3], slotTx, clause); err != nil {
			return Pattern{}, err
		}
	}
	return p, nil
}

type slot int

const (
	slotEntity slot = iota
	slotAttribute
	slotValue
	slotTx
)

func (s slot) String() string {
	return [...]string{"entity", "attribute", "value", "transaction"}[s]
}

func parsePlace(item edn.Value, s slot, clause int) (Place, error) {
	switch x := item.(type) {
	case edn.Symbol:
		if x.Name == "_" {
			return Placeholder{}, nil
		}
		if v, ok := asVariable(x); ok {
			return v, nil
		}
		return nil, parseErrorf(x.Position(), "unexpected symbol %s in %s position", x.Name, s).AtClause(clause)
	case edn.Keyword:
		return IdentLiteral{Ident: x.Value}, nil
	case edn.Integer:
		return IntegerLiteral{Value: x.Value}, nil
	}

	if s != slotValue {
		return nil, parseErrorf(item.Position(), "%s is not valid in %s position", edn.Describe(item), s).AtClause(clause)
	}

	switch x := item.(type) {
	case edn.String:
		return Constant{Value: core.String(x.Value)}, nil
	case edn.Bool:
		return Constant{Value: core.Boolean(x.Value)}, nil
	case edn.Float:
		return Constant{Value: core.Double(x.Value)}, nil
	case edn.Inst:
		return Constant{Value: core.NewInstant(x.Value)}, nil
	case edn.UUID:
		return Constant{Value: core.UUID(x.Value)}, nil
	default:
		return nil, parseErrorf(item.Position(), "%s is not valid in value position", edn.Describe(item)).AtClause(clause)
	}
}

func asVariable(sym edn.Symbol) (Variable, bool) {
	if len(sym.Name) > 1 && sym.Name[0] == '?' {
		return Variable(sym.Name), true
	}
	return "", false
}

func isSymbol(v edn.Value, name string) bool {
	sym, ok := v.(edn.Symbol)
	return ok && sym.Name == name
}

func isVector(v edn.Value) bool {
	_, ok := v.(edn.Vector)
	return ok
}

func parseErrorf(pos edn.Pos, format string, args ...any) *core.QueryError {
	return core.Errorf(core.ErrCodeParse, "%s: %s", pos, fmt.Sprintf(format, args...))
}
