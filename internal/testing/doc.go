// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides fixture builders for graphstore-backed tests.
//
// SetupTestStore returns a Store wrapping an in-memory Backend double; the
// Insert* helpers import single-node or single-edge fixtures through the
// same Store.ImportNodes/ImportEdges path production code uses, so a test
// exercises the real Cypher-building logic instead of a parallel mock of it.
//
//	func TestMyFeature(t *testing.T) {
//	    store, backend := testing.SetupTestStore(t)
//	    testing.InsertTestFunction(t, store, "proj1", "func1", "Handle", "handler.go", 10)
//	    // assert against backend.Calls or RecordedExecuteCyphers(backend)
//	}
package testing
