package edn

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tessera/internal/core"
)

func TestReadLiteral(t *testing.T) {
	id := uuid.MustParse("5e1f35d4-9e3a-4b4e-9b4e-2f0c6a1d7e11")
	tests := []struct {
		input string
		want  core.TypedValue
	}{
		{"true", core.Boolean(true)},
		{"36", core.Long(36)},
		{"1.5", core.Double(1.5)},
		{`"Ada"`, core.String("Ada")},
		{":person/name", core.NewKeyword("person", "name")},
		{`#inst "2024-01-01T00:00:00Z"`, core.NewInstant(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{`#uuid "5e1f35d4-9e3a-4b4e-9b4e-2f0c6a1d7e11"`, core.UUID(id)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ReadLiteral(tt.input)
			require.NoError(t, err)
			assert.True(t, core.Equal(tt.want, got), "got %s", core.Format(got))
		})
	}
}

func TestReadLiteral_Rejects(t *testing.T) {
	for _, input := range []string{"nil", "?x", "[1 2]", "{:a 1}", "", "1 2"} {
		t.Run(input, func(t *testing.T) {
			_, err := ReadLiteral(input)
			var se *SyntaxError
			assert.True(t, errors.As(err, &se), "want SyntaxError, got %v", err)
		})
	}
}
