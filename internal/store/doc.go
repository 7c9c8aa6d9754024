// Package store provides SQLite-backed storage for datoms.
//
// Every fact is one row of the datoms table:
//
//	datoms(e, a, v, tx, value_type_tag, index_avet, index_vaet, index_fulltext, unique_value)
//
// v has no column affinity. value_type_tag records how a cell is read back:
// refs, longs, booleans (0/1) and instants (microseconds since the epoch) are
// INTEGER; doubles are REAL; strings and keywords (":ns/name") are TEXT; UUIDs
// are 16-byte BLOBs. Longs and doubles share a tag and are told apart by
// storage class.
//
// # Bootstrap
//
// Opening a new database asserts the bootstrap vocabulary in transaction
// schema.BootstrapTx and seeds the partitions table. Schema reads return an
// immutable schema.Schema built from the ident and attribute datoms.
//
// # Writes
//
// The write path is deliberately small: install attributes, allocate entids
// and assert facts. Each call is one SQLite transaction stamped with a
// :db/txInstant from the store's Clock.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One connection: an in-memory store ("" path) lives as long as the Store
//
// Failures carry github.com/samber/oops codes (see Code).
package store
