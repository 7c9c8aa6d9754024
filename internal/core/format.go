package core

import (
	"strconv"
	"strings"
	"time"
)

// Format renders a value as EDN.
func Format(v TypedValue) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case Ref:
		return strconv.FormatInt(int64(val), 10)
	case Keyword:
		return val.String()
	case String:
		return quoteString(string(val))
	case Boolean:
		return strconv.FormatBool(bool(val))
	case Long:
		return strconv.FormatInt(int64(val), 10)
	case Double:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case Instant:
		return `#inst "` + val.t.Format(time.RFC3339Nano) + `"`
	case UUID:
		return `#uuid "` + val.String() + `"`
	default:
		return "#unknown"
	}
}

// FormatAll renders values as an EDN vector.
func FormatAll(vs []TypedValue) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Format(v))
	}
	b.WriteByte(']')
	return b.String()
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
