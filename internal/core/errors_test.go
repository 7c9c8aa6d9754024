package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError_Message(t *testing.T) {
	err := Errorf(ErrCodeTypeConflict, "?x is both ref and long").AtClause(2).ForVariable("?x")
	assert.Equal(t, "TYPE_CONFLICT: ?x is both ref and long (clause=2, variable=?x)", err.Error())

	plain := Errorf(ErrCodeParse, "expected :find")
	assert.Equal(t, "PARSE_ERROR: expected :find", plain.Error())
}

func TestQueryError_WrappedStoreError(t *testing.T) {
	cause := errors.New("no such table: datoms")
	err := fmt.Errorf("run query: %w", NewStoreError(cause))

	assert.True(t, IsCode(err, ErrCodeStoreExecution))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no such table")
}

func TestCodeOf_NonQueryError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	assert.False(t, IsCode(nil, ErrCodeParse))
}
