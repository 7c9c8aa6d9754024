package edn

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tessera/internal/core"
)

// SyntaxError reports malformed EDN text.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Read parses exactly one form from text. Anything but whitespace and
// comments after the form is an error.
func Read(text string) (Value, error) {
	r := &reader{src: []rune(text), line: 1, col: 1}
	r.skipSpace()
	if r.eof() {
		return nil, r.errorf(r.pos(), "empty input")
	}
	v, err := r.read()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if !r.eof() {
		return nil, r.errorf(r.pos(), "unexpected %q after form", r.peek())
	}
	return v, nil
}

// ReadAll parses every form in text.
func ReadAll(text string) ([]Value, error) {
	r := &reader{src: []rune(text), line: 1, col: 1}
	var forms []Value
	for {
		r.skipSpace()
		if r.eof() {
			return forms, nil
		}
		v, err := r.read()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
}

type reader struct {
	src  []rune
	off  int
	line int
	col  int
}

func (r *reader) eof() bool { return r.off >= len(r.src) }

func (r *reader) peek() rune {
	if r.eof() {
		return 0
	}
	return r.src[r.off]
}

func (r *reader) next() rune {
	c := r.src[r.off]
	r.off++
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

func (r *reader) pos() Pos { return Pos{Line: r.line, Col: r.col} }

func (r *reader) errorf(p Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: p, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace skips whitespace, commas and ; comments.
func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.peek()
		switch {
		case c == ',' || unicode.IsSpace(c):
			r.next()
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.next()
			}
		default:
			return
		}
	}
}

func (r *reader) read() (Value, error) {
	start := r.pos()
	c := r.peek()
	switch {
	case c == '[':
		r.next()
		items, err := r.readSeq(']', start)
		if err != nil {
			return nil, err
		}
		return Vector{node: node{start}, Items: items}, nil
	case c == '(':
		r.next()
		items, err := r.readSeq(')', start)
		if err != nil {
			return nil, err
		}
		return List{node: node{start}, Items: items}, nil
	case c == '{':
		r.next()
		items, err := r.readSeq('}', start)
		if err != nil {
			return nil, err
		}
		if len(items)%2 != 0 {
			return nil, r.errorf(start, "map literal must contain an even number of forms")
		}
		m := Map{node: node{start}}
		for i := 0; i < len(items); i += 2 {
			m.Entries = append(m.Entries, MapEntry{Key: items[i], Value: items[i+1]})
		}
		return m, nil
	case c == ']' || c == ')' || c == '}':
		return nil, r.errorf(start, "unmatched delimiter %q", c)
	case c == '"':
		s, err := r.readString()
		if err != nil {
			return nil, err
		}
		return String{node: node{start}, Value: s}, nil
	case c == ':':
		return r.readKeyword()
	case c == '#':
		return r.readDispatch()
	case c == '\\':
		return nil, r.errorf(start, "character literals are not supported")
	case isDigit(c):
		return r.readNumber()
	case (c == '-' || c == '+') && r.off+1 < len(r.src) && isDigit(r.src[r.off+1]):
		return r.readNumber()
	case isSymbolStart(c):
		return r.readSymbol()
	default:
		return nil, r.errorf(start, "unexpected character %q", c)
	}
}

func (r *reader) readSeq(end rune, start Pos) ([]Value, error) {
	var items []Value
	for {
		r.skipSpace()
		if r.eof() {
			return nil, r.errorf(start, "unterminated form, expected %q", end)
		}
		if r.peek() == end {
			r.next()
			return items, nil
		}
		v, err := r.read()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (r *reader) readString() (string, error) {
	start := r.pos()
	r.next() // opening quote
	var b strings.Builder
	for {
		if r.eof() {
			return "", r.errorf(start, "unterminated string")
		}
		c := r.next()
		switch c {
		case '"':
			return norm.NFC.String(b.String()), nil
		case '\\':
			if r.eof() {
				return "", r.errorf(start, "unterminated string")
			}
			escPos := r.pos()
			e := r.next()
			switch e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '"', '\\':
				b.WriteRune(e)
			case 'u':
				if r.off+4 > len(r.src) {
					return "", r.errorf(escPos, "truncated \\u escape")
				}
				hex := string(r.src[r.off : r.off+4])
				n, err := strconv.ParseUint(hex, 16, 32)
				if err != nil {
					return "", r.errorf(escPos, "invalid \\u escape %q", hex)
				}
				for range 4 {
					r.next()
				}
				b.WriteRune(rune(n))
			default:
				return "", r.errorf(escPos, "invalid escape \\%c", e)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (r *reader) readToken() string {
	begin := r.off
	for !r.eof() && isSymbolChar(r.peek()) {
		r.next()
	}
	return string(r.src[begin:r.off])
}

func (r *reader) readKeyword() (Value, error) {
	start := r.pos()
	r.next() // ':'
	if r.peek() == ':' {
		return nil, r.errorf(start, "auto-resolved keywords are not supported")
	}
	tok := r.readToken()
	if tok == "" {
		return nil, r.errorf(start, "empty keyword")
	}
	kw, err := core.ParseKeyword(tok)
	if err != nil {
		return nil, r.errorf(start, "%v", err)
	}
	return Keyword{node: node{start}, Value: kw}, nil
}

func (r *reader) readSymbol() (Value, error) {
	start := r.pos()
	tok := r.readToken()
	switch tok {
	case "nil":
		return Nil{node: node{start}}, nil
	case "true":
		return Bool{node: node{start}, Value: true}, nil
	case "false":
		return Bool{node: node{start}, Value: false}, nil
	}
	return Symbol{node: node{start}, Name: tok}, nil
}

func (r *reader) readNumber() (Value, error) {
	start := r.pos()
	begin := r.off
	if c := r.peek(); c == '-' || c == '+' {
		r.next()
	}
	for !r.eof() && isSymbolChar(r.peek()) {
		r.next()
	}
	tok := string(r.src[begin:r.off])

	if strings.ContainsAny(tok, ".eE") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(tok, "M"), 64)
		if err != nil {
			return nil, r.errorf(start, "invalid number %q", tok)
		}
		return Float{node: node{start}, Value: f}, nil
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(tok, "N"), 10, 64)
	if err != nil {
		return nil, r.errorf(start, "invalid integer %q", tok)
	}
	return Integer{node: node{start}, Value: n}, nil
}

func (r *reader) readDispatch() (Value, error) {
	start := r.pos()
	r.next() // '#'
	switch c := r.peek(); {
	case c == '{':
		return nil, r.errorf(start, "set literals are not supported")
	case !isSymbolStart(c):
		return nil, r.errorf(start, "invalid dispatch character %q", c)
	}

	tag := r.readToken()
	r.skipSpace()
	if r.peek() != '"' {
		return nil, r.errorf(start, "#%s must be followed by a string", tag)
	}
	s, err := r.readString()
	if err != nil {
		return nil, err
	}

	switch tag {
	case "inst":
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, r.errorf(start, "invalid #inst %q", s)
		}
		return Inst{node: node{start}, Value: t}, nil
	case "uuid":
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, r.errorf(start, "invalid #uuid %q", s)
		}
		return UUID{node: node{start}, Value: u}, nil
	default:
		return nil, r.errorf(start, "unknown tag #%s", tag)
	}
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isSymbolStart(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(".*+!-_?$%&=<>/'", c)
}

func isSymbolChar(c rune) bool {
	return isSymbolStart(c) || isDigit(c) || c == ':' || c == '#'
}
