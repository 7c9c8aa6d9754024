package engine

import (
	"context"
	"fmt"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/querysql"
)

// execute runs compiled SQL and returns its rows as raw cells.
//
// Zero rows is an empty slice, not an error. Rows arrive in the compiled
// ORDER BY order. Any store failure, including one raised while iterating,
// is wrapped as STORE_EXECUTION with the store's error kept in the chain.
func execute(ctx context.Context, conn Querier, compiled querysql.Compiled) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewStoreError(fmt.Errorf("context cancelled: %w", err))
	}

	rows, err := conn.Query(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		return nil, core.NewStoreError(err)
	}
	defer rows.Close()

	width := len(compiled.Columns)
	result := [][]any{}
	for rows.Next() {
		cells := make([]any, width)
		dest := make([]any, width)
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, core.NewStoreError(fmt.Errorf("scan row %d: %w", len(result), err))
		}
		result = append(result, cells)
	}

	if err := rows.Err(); err != nil {
		return nil, core.NewStoreError(err)
	}

	return result, nil
}
