package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
)

// Partition names as stored in the parts table.
const (
	PartDb   = ":db.part/db"
	PartUser = ":db.part/user"
	PartTx   = ":db.part/tx"
)

// migrateToV1 asserts the bootstrap datoms in BootstrapTx and seeds the
// partitions past the entids the bootstrap uses.
func migrateToV1(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v1: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM datoms").Scan(&count); err != nil {
		return fmt.Errorf("migrate to v1: count datoms: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("migrate to v1: datoms table already holds %d rows", count)
	}

	for _, t := range schema.BootstrapTriples() {
		attr := schema.BootstrapAttributes[t.A]
		row := marshalDatom(t.E, t.A, t.V, schema.BootstrapTx, attr)
		if _, err := tx.ExecContext(ctx, insertDatomSQL, row.args()...); err != nil {
			return fmt.Errorf("migrate to v1: insert bootstrap datom %d: %w", t.E, err)
		}
	}

	parts := []struct {
		name  string
		start core.Entid
		next  core.Entid
	}{
		{PartDb, schema.PartDbStart, schema.DbSchemaAttribute + 1},
		{PartUser, schema.PartUserStart, schema.PartUserStart},
		{PartTx, schema.PartTxStart, schema.BootstrapTx + 1},
	}
	for _, p := range parts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO parts (part, start, idx) VALUES (?, ?, ?)",
			p.name, int64(p.start), int64(p.next),
		); err != nil {
			return fmt.Errorf("migrate to v1: insert partition %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v1: commit: %w", err)
	}
	return nil
}
