package core

import (
	"fmt"
	"strings"
)

// Keyword is a namespaced symbolic name such as :db/ident.
//
// Keywords identify attributes and entities (idents) and are also a value
// kind of their own. Two keywords are equal iff both parts are equal.
type Keyword struct {
	Namespace string
	Name      string
}

func (Keyword) typedValue() {}

// ValueType implements TypedValue.
func (Keyword) ValueType() ValueType { return ValueTypeKeyword }

// NewKeyword creates a namespaced keyword.
func NewKeyword(namespace, name string) Keyword {
	return Keyword{Namespace: namespace, Name: name}
}

// ParseKeyword parses ":ns/name", "ns/name", ":name" or "name".
//
// The namespace is everything before the last slash, so "db.type/keyword"
// has namespace "db.type". A lone "/" is the keyword with name "/".
func ParseKeyword(s string) (Keyword, error) {
	s = strings.TrimPrefix(s, ":")
	if s == "" {
		return Keyword{}, fmt.Errorf("empty keyword")
	}
	if s == "/" {
		return Keyword{Name: "/"}, nil
	}
	idx := strings.LastIndex(s, "/")
	if idx == -1 {
		return Keyword{Name: s}, nil
	}
	ns, name := s[:idx], s[idx+1:]
	if ns == "" || name == "" {
		return Keyword{}, fmt.Errorf("invalid keyword %q", s)
	}
	return Keyword{Namespace: ns, Name: name}, nil
}

// MustParseKeyword is ParseKeyword for literals known to be valid.
func MustParseKeyword(s string) Keyword {
	kw, err := ParseKeyword(s)
	if err != nil {
		panic(err)
	}
	return kw
}

// IsNamespaced reports whether the keyword has a namespace part.
func (k Keyword) IsNamespaced() bool {
	return k.Namespace != ""
}

// String renders the keyword in EDN form, e.g. ":db/ident".
func (k Keyword) String() string {
	if k.Namespace == "" {
		return ":" + k.Name
	}
	return ":" + k.Namespace + "/" + k.Name
}

// compareKeywords orders by namespace, then name.
func compareKeywords(a, b Keyword) int {
	if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
