package engine

import (
	"github.com/roach88/tessera/internal/core"
)

// IsCompileError returns true if err was raised before any SQL was issued.
// Uses errors.As (through core.CodeOf) to handle wrapped errors.
func IsCompileError(err error) bool {
	switch core.CodeOf(err) {
	case core.ErrCodeParse,
		core.ErrCodeUnknownAttribute,
		core.ErrCodeTypeConflict,
		core.ErrCodeUnboundFindVariable,
		core.ErrCodeInvalidInput:
		return true
	default:
		return false
	}
}

// IsStoreError returns true if the store failed while executing a query.
func IsStoreError(err error) bool {
	return core.IsCode(err, core.ErrCodeStoreExecution)
}
