// Package engine runs Datalog queries against a datom store.
//
// A query passes through fixed stages, each a pure function of its input
// except the last:
//
//  1. query.Parse: text to AST (PARSE_ERROR, UNBOUND_FIND_VARIABLE)
//  2. algebrize.Algebrize: AST and schema to a constraint graph
//     (UNKNOWN_ATTRIBUTE, TYPE_CONFLICT, INVALID_INPUT)
//  3. querysql.Compile: graph to one parameterized SELECT
//  4. execute: SQL on the store (STORE_EXECUTION)
//  5. projector.Project: raw rows to Rel, Scalar, Tuple or Coll
//
// Every compile-time error is raised before any SQL is issued. A graph that
// the algebrizer proves empty skips the store and returns the empty result
// of its shape.
//
// CRITICAL PATTERNS:
//
// Deterministic results: compiled SQL always orders by every projected
// column, so the same query over the same snapshot returns the same rows in
// the same order, and Scalar and Tuple pick the same row.
//
// Snapshot isolation: the caller supplies the schema snapshot. The engine
// holds no state between calls.
package engine
