// Package vocab loads attribute vocabularies written in CUE.
//
// A vocabulary is a CUE file with a top-level attributes struct keyed by
// "namespace/name":
//
//	attributes: {
//		"person/name":   {valueType: "string", unique: "identity"}
//		"person/friend": {valueType: "ref", cardinality: "many"}
//	}
//
// The file is unified with the #Attribute definition (see definition.cue),
// which closes each attribute, enumerates value types and defaults the
// cardinality to "one". Attributes are returned in file order.
package vocab

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
	"github.com/roach88/tessera/internal/store"
)

//go:embed definition.cue
var definitionCUE string

// attributeSpec mirrors #Attribute for decoding.
type attributeSpec struct {
	ValueType   string `json:"valueType"`
	Cardinality string `json:"cardinality"`
	Unique      string `json:"unique,omitempty"`
	Index       bool   `json:"index,omitempty"`
	Fulltext    bool   `json:"fulltext,omitempty"`
	IsComponent bool   `json:"isComponent,omitempty"`
	Doc         string `json:"doc,omitempty"`
}

// LoadFile reads and compiles a vocabulary file.
func LoadFile(path string) ([]store.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Compile(path, src)
}

// Compile compiles vocabulary source. filename is used in error positions.
func Compile(filename string, src []byte) ([]store.Definition, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(definitionCUE, cue.Filename("definition.cue"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("vocabulary definition: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	attrsVal := unified.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{Field: "attributes", Message: "attributes is required", Pos: v.Pos()}
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []store.Definition
	for iter.Next() {
		label := iter.Label()
		d, err := compileAttribute(label, iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}

	if len(defs) == 0 {
		return nil, &CompileError{Field: "attributes", Message: "at least one attribute is required", Pos: attrsVal.Pos()}
	}
	return defs, nil
}

func compileAttribute(label string, v cue.Value) (store.Definition, error) {
	field := "attributes." + label

	ident, err := core.ParseKeyword(label)
	if err != nil || !ident.IsNamespaced() {
		return store.Definition{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("attribute name %q must be namespace/name", label),
			Pos:     v.Pos(),
		}
	}

	var spec attributeSpec
	if err := v.Decode(&spec); err != nil {
		return store.Definition{}, formatCUEError(err)
	}

	valueType, ok := core.ValueTypeFromName(spec.ValueType)
	if !ok {
		return store.Definition{}, &CompileError{Field: field + ".valueType", Message: fmt.Sprintf("unknown value type %q", spec.ValueType), Pos: v.Pos()}
	}

	attr := schema.Attribute{
		ValueType:   valueType,
		Cardinality: schema.CardinalityOne,
		Index:       spec.Index,
		Fulltext:    spec.Fulltext,
		Component:   spec.IsComponent,
	}
	if spec.Cardinality == "many" {
		attr.Cardinality = schema.CardinalityMany
	}
	switch spec.Unique {
	case "value":
		attr.Unique = schema.UniqueValue
	case "identity":
		attr.Unique = schema.UniqueIdentity
	}

	if err := attr.Validate(); err != nil {
		return store.Definition{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}

	return store.Definition{Ident: ident, Attribute: attr, Doc: spec.Doc}, nil
}

// CompileError is a vocabulary error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
