package edn

import (
	"fmt"

	"github.com/roach88/tessera/internal/core"
)

// Literal converts a scalar form to a typed value. Integers become longs
// and keywords stay keywords; callers that expect a ref resolve the keyword
// as an ident themselves.
func Literal(v Value) (core.TypedValue, error) {
	switch x := v.(type) {
	case Bool:
		return core.Boolean(x.Value), nil
	case Integer:
		return core.Long(x.Value), nil
	case Float:
		return core.Double(x.Value), nil
	case String:
		return core.String(x.Value), nil
	case Keyword:
		return x.Value, nil
	case Inst:
		return core.NewInstant(x.Value), nil
	case UUID:
		return core.UUID(x.Value), nil
	default:
		return nil, &SyntaxError{Pos: v.Position(), Msg: fmt.Sprintf("%s is not a literal value", Describe(v))}
	}
}

// ReadLiteral reads exactly one scalar form from text.
func ReadLiteral(text string) (core.TypedValue, error) {
	v, err := Read(text)
	if err != nil {
		return nil, err
	}
	return Literal(v)
}
