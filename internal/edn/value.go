// Package edn reads the subset of EDN that query text is written in.
//
// Every value carries the position of its first character so that the
// query parser can report where a malformed form starts. Supported forms:
// nil, booleans, integers, floats, strings, keywords, symbols, vectors,
// lists, maps and the #inst and #uuid tagged literals. Sets, characters and
// other tags are rejected with a SyntaxError.
package edn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tessera/internal/core"
)

// Pos is a 1-based line and column in the source text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Col)
}

// Value is a parsed EDN form.
//
// This is a sealed interface; only the types in this package implement it.
type Value interface {
	Position() Pos
	ednValue() // Marker method - seals interface to this package
}

type node struct {
	pos Pos
}

// Position returns where the form starts.
func (n node) Position() Pos { return n.pos }

func (node) ednValue() {}

// Nil is the nil literal.
type Nil struct{ node }

// Bool is true or false.
type Bool struct {
	node
	Value bool
}

// Integer is a 64-bit integer literal.
type Integer struct {
	node
	Value int64
}

// Float is a floating point literal.
type Float struct {
	node
	Value float64
}

// String is a string literal, NFC-normalized.
type String struct {
	node
	Value string
}

// Keyword is a keyword literal such as :db/ident.
type Keyword struct {
	node
	Value core.Keyword
}

// Symbol is a bare symbol such as ?x, _, $ or "...".
type Symbol struct {
	node
	Name string
}

// Vector is [a b c].
type Vector struct {
	node
	Items []Value
}

// List is (a b c).
type List struct {
	node
	Items []Value
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is {k v ...}. Entries keep source order.
type Map struct {
	node
	Entries []MapEntry
}

// Inst is a #inst "RFC3339" literal.
type Inst struct {
	node
	Value time.Time
}

// UUID is a #uuid "..." literal.
type UUID struct {
	node
	Value uuid.UUID
}

// Describe names the kind of a form for error messages, e.g. "keyword :a/b".
func Describe(v Value) string {
	switch x := v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "boolean " + strconv.FormatBool(x.Value)
	case Integer:
		return "integer " + strconv.FormatInt(x.Value, 10)
	case Float:
		return "float " + strconv.FormatFloat(x.Value, 'g', -1, 64)
	case String:
		return "string " + strconv.Quote(x.Value)
	case Keyword:
		return "keyword " + x.Value.String()
	case Symbol:
		return "symbol " + x.Name
	case Vector:
		return "vector"
	case List:
		return "list"
	case Map:
		return "map"
	case Inst:
		return "#inst"
	case UUID:
		return "#uuid"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Format renders a form back to EDN text.
func Format(v Value) string {
	var b strings.Builder
	write(&b, v)
	return b.String()
}

func write(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case Nil:
		b.WriteString("nil")
	case Bool:
		b.WriteString(strconv.FormatBool(x.Value))
	case Integer:
		b.WriteString(strconv.FormatInt(x.Value, 10))
	case Float:
		b.WriteString(core.Format(core.Double(x.Value)))
	case String:
		b.WriteString(core.Format(core.String(x.Value)))
	case Keyword:
		b.WriteString(x.Value.String())
	case Symbol:
		b.WriteString(x.Name)
	case Vector:
		writeSeq(b, "[", "]", x.Items)
	case List:
		writeSeq(b, "(", ")", x.Items)
	case Map:
		b.WriteByte('{')
		for i, e := range x.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, e.Key)
			b.WriteByte(' ')
			write(b, e.Value)
		}
		b.WriteByte('}')
	case Inst:
		b.WriteString(core.Format(core.NewInstant(x.Value)))
	case UUID:
		b.WriteString(core.Format(core.UUID(x.Value)))
	}
}

func writeSeq(b *strings.Builder, left, right string, items []Value) {
	b.WriteString(left)
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		write(b, item)
	}
	b.WriteString(right)
}
