package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes query failures.
type ErrorCode string

const (
	// ErrCodeParse indicates malformed query text or structure.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeUnknownAttribute indicates an attribute ident with no schema entry.
	ErrCodeUnknownAttribute ErrorCode = "UNKNOWN_ATTRIBUTE"

	// ErrCodeTypeConflict indicates a variable narrowed to two value types,
	// or a literal whose type disagrees with its attribute.
	ErrCodeTypeConflict ErrorCode = "TYPE_CONFLICT"

	// ErrCodeUnboundFindVariable indicates a find variable no clause binds.
	ErrCodeUnboundFindVariable ErrorCode = "UNBOUND_FIND_VARIABLE"

	// ErrCodeInvalidInput indicates input bindings that do not fit the query.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeStoreExecution indicates the translated query failed in the store.
	ErrCodeStoreExecution ErrorCode = "STORE_EXECUTION"
)

// QueryError is the error returned by every stage of the query pipeline.
//
// Compile-time codes (parse, unknown attribute, type conflict, unbound find
// variable, invalid input) are raised before any SQL is issued.
// ErrCodeStoreExecution wraps the store's error unchanged in Err.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Clause is the 1-based where-clause index that triggered the error,
	// or 0 when the error is not tied to a clause.
	Clause int

	// Variable names the query variable involved, if any.
	Variable string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.Clause > 0 {
		ctx = append(ctx, fmt.Sprintf("clause=%d", e.Clause))
	}
	if e.Variable != "" {
		ctx = append(ctx, "variable="+e.Variable)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Errorf creates a QueryError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AtClause attaches a 1-based clause index.
func (e *QueryError) AtClause(clause int) *QueryError {
	e.Clause = clause
	return e
}

// ForVariable attaches the variable involved.
func (e *QueryError) ForVariable(v string) *QueryError {
	e.Variable = v
	return e
}

// NewStoreError wraps an error raised at the storage boundary.
func NewStoreError(err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeStoreExecution,
		Message: "query execution failed",
		Err:     err,
	}
}

// CodeOf returns the code of the first QueryError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsCode reports whether err's chain holds a QueryError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
