package store

import (
	"fmt"

	"github.com/samber/oops"
)

// Code identifies the failure class of a store error.
type Code string

const (
	CodeOpenFailure     Code = "store.open.failure"
	CodeSchemaFailure   Code = "store.schema.failure"
	CodeQueryFailure    Code = "store.query.failure"
	CodeTransactInvalid Code = "store.transact.invalid"
	CodeTransactFailure Code = "store.transact.failure"
)

func errorf(code Code, format string, args ...any) error {
	return oops.Code(string(code)).Errorf(format, args...)
}

func wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(string(code)).Wrapf(err, format, args...)
}

// CodeOf returns the store code attached to err, or "" if there is none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// HasCode reports whether err carries the given store code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
