// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTestFunction_IssuesMergeOnCodeNode(t *testing.T) {
	store, backend := SetupTestStore(t)
	InsertTestFunction(t, store, "proj1", "func1", "Handle", "handler.go", 10)

	cyphers := RecordedExecuteCyphers(backend)
	require.Len(t, cyphers, 1)
	assert.Contains(t, cyphers[0], "MERGE (n:CodeNode")
}

func TestInsertTestType_IssuesMergeOnCodeNode(t *testing.T) {
	store, backend := SetupTestStore(t)
	InsertTestType(t, store, "proj1", "type1", "UserService", "struct", "user.go", 10)

	cyphers := RecordedExecuteCyphers(backend)
	require.Len(t, cyphers, 1)
	assert.Contains(t, cyphers[0], "MERGE (n:CodeNode")
}

func TestInsertTestCallsAndDefines_IssueRelationshipMerges(t *testing.T) {
	store, backend := SetupTestStore(t)
	InsertTestFunction(t, store, "proj1", "caller", "Caller", "a.go", 1)
	InsertTestFunction(t, store, "proj1", "callee", "Callee", "b.go", 5)
	InsertTestCalls(t, store, "proj1", "edge1", "caller", "callee")
	InsertTestDefines(t, store, "proj1", "edge2", "a.go#owner", "caller")

	cyphers := RecordedExecuteCyphers(backend)
	require.Len(t, cyphers, 4)
	assert.Contains(t, cyphers[2], "MERGE (src)-[r:CALLS")
	assert.Contains(t, cyphers[3], "MERGE (src)-[r:DEFINES")
}

func TestMultipleInserts_RecordsOneCallPerNode(t *testing.T) {
	store, backend := SetupTestStore(t)
	InsertTestFunction(t, store, "proj1", "func1", "Main", "main.go", 5)
	InsertTestFunction(t, store, "proj1", "func2", "Helper", "util.go", 15)
	InsertTestFunction(t, store, "proj1", "func3", "Process", "processor.go", 25)

	assert.Len(t, RecordedExecuteCyphers(backend), 3)
}

func TestSetupTestStore_EachTestGetsAnIsolatedBackend(t *testing.T) {
	store1, backend1 := SetupTestStore(t)
	InsertTestFunction(t, store1, "proj1", "func1", "Test1", "file1.go", 1)

	_, backend2 := SetupTestStore(t)
	assert.Empty(t, backend2.Calls, "a fresh backend should have no recorded calls")
	assert.Len(t, backend1.Calls, 1, "the first backend should still have its recorded call")
}
