// Package core defines the value model shared by every stage of the query
// pipeline: the closed set of typed values a datom can hold, the value types
// that tag them, symbolic keywords, and the coded errors a query reports.
//
// VALUE MODEL:
//
// TypedValue is a sealed interface. Only the types in this package implement
// it, so switches over a TypedValue are exhaustive:
//
//	switch v := value.(type) {
//	case core.Ref:
//	case core.Keyword:
//	case core.String:
//	case core.Boolean:
//	case core.Long:
//	case core.Double:
//	case core.Instant:
//	case core.UUID:
//	}
//
// Every value carries exactly one ValueType. Comparison orders by the type tag
// first and the payload second.
//
// STORAGE ENCODING:
//
// Datoms keep their value in an untyped SQLite column next to a small integer
// value_type_tag. ToSQL produces the (value, tag) pair; FromSQL decodes a raw
// cell given the ValueType the caller already knows. Decoding with the wrong
// ValueType is a programming error and panics: the projector always knows the
// type from the schema or from the run-time tag column.
package core
