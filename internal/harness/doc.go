// Package harness runs query scenarios against a fresh in-memory store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: friends
//	description: "Who is friends with whom"
//	vocabulary: |
//	  attributes: {
//	    "person/name":   {valueType: "string", unique: "identity"}
//	    "person/friend": {valueType: "ref", cardinality: "many"}
//	  }
//	facts:
//	  - {e: ada, a: person/name, v: '"Ada"'}
//	  - {e: bob, a: person/friend, ref: ada}
//	queries:
//	  - name: friend names
//	    query: '[:find [?n ...] :where [?b :person/friend ?a] [?a :person/name ?n]]'
//	    expect: '["Ada"]'
//	  - name: by name
//	    query: '[:find ?e . :in ?n :where [?e :person/name ?n]]'
//	    inputs: {"?n": '"Bob"'}
//	    len: 1
//	  - name: bad attribute
//	    query: '[:find ?e :where [?e :person/nope _]]'
//	    error: UNKNOWN_ATTRIBUTE
//
// The vocabulary is CUE (see package vocab). Fact entities are tempids:
// every distinct name gets one fresh entid, in order of first use. A fact
// carries either v, an EDN literal, or ref, another tempid. Query inputs are
// EDN literals keyed by variable.
//
// Each query checks exactly one of expect (the EDN rendering of the
// results), len (the number of result elements) or error (the error code).
//
// # Determinism
//
// Each scenario runs in its own store with a deterministic clock, so
// entids and transaction instants are the same on every run.
//
// # Golden Files
//
// RunWithGolden records every query's rendering under testdata/golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
