// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analysis

import (
	"context"
	"strings"
	"testing"
)

// fakeTraversalReader is a tiny hand-built graph:
//
//	root --CALLS--> a --CALLS--> c
//	root --IMPORTS--> b --CALLS--> c
type fakeTraversalReader struct {
	nodes     map[string]Node
	neighbors map[string][]TraversalEdge
}

func (f *fakeTraversalReader) GetNode(ctx context.Context, nodeID string) (*Node, error) {
	n, ok := f.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeTraversalReader) Neighbors(ctx context.Context, nodeID string) ([]TraversalEdge, error) {
	return f.neighbors[nodeID], nil
}

func newFakeTraversalReader() *fakeTraversalReader {
	nodes := map[string]Node{
		"root": {ID: "root", Name: "root", FilePath: "root.go"},
		"a":    {ID: "a", Name: "a", FilePath: "a.go"},
		"b":    {ID: "b", Name: "b", FilePath: "b.go"},
		"c":    {ID: "c", Name: "c", FilePath: "c.go"},
	}
	neighbors := map[string][]TraversalEdge{
		"root": {
			{RelationshipType: "CALLS", Target: nodes["a"]},
			{RelationshipType: "IMPORTS", Target: nodes["b"]},
		},
		"a": {{RelationshipType: "CALLS", Target: nodes["c"]}},
		"b": {{RelationshipType: "CALLS", Target: nodes["c"]}},
	}
	return &fakeTraversalReader{nodes: nodes, neighbors: neighbors}
}

func TestTraversalEngine_TraverseFromNode_GroupsByDepthAndChain(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 5})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	if result.Summary.TotalConnections != 3 {
		t.Errorf("TotalConnections = %d, want 3 (a, b, c)", result.Summary.TotalConnections)
	}
	if result.Summary.MaxDepthReached != 2 {
		t.Errorf("MaxDepthReached = %d, want 2", result.Summary.MaxDepthReached)
	}
	if result.Summary.DistinctFiles != 3 {
		t.Errorf("DistinctFiles = %d, want 3", result.Summary.DistinctFiles)
	}
	if len(result.Depths) != 2 {
		t.Fatalf("expected 2 depth groups, got %d", len(result.Depths))
	}
	if result.Depths[0].Depth != 1 || len(result.Depths[0].Chains) != 2 {
		t.Errorf("depth 1 should have 2 distinct chains (CALLS, IMPORTS), got %+v", result.Depths[0])
	}
	// c is reached via both a and b at depth 2, but BFS visits it only once
	// (first chain wins) since it's already marked visited.
	if result.Depths[1].Depth != 2 || len(result.Depths[1].Chains) != 1 {
		t.Errorf("depth 2 should have exactly one chain reaching c once, got %+v", result.Depths[1])
	}
}

func TestTraversalEngine_TraverseFromNode_RespectsMaxDepth(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	if result.Summary.TotalConnections != 2 {
		t.Errorf("TotalConnections = %d, want 2 (a and b only)", result.Summary.TotalConnections)
	}
}

func TestTraversalEngine_TraverseFromNode_ClampsMaxDepthAbove10(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 50})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	if result.Summary.MaxDepthReached > 10 {
		t.Errorf("MaxDepthReached = %d, traversal should clamp to 10", result.Summary.MaxDepthReached)
	}
}

func TestTraversalEngine_TraverseFromNode_IncludeStartDetails(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 5, IncludeStartDetails: true})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	if len(result.Depths) == 0 || result.Depths[0].Depth != 0 {
		t.Errorf("expected a depth-0 group for the start node, got %+v", result.Depths)
	}
}

func TestTraversalEngine_TraverseFromNode_LimitTruncatesPerChain(t *testing.T) {
	nodes := map[string]Node{
		"root": {ID: "root", Name: "root"},
		"x1":   {ID: "x1", Name: "x1"},
		"x2":   {ID: "x2", Name: "x2"},
		"x3":   {ID: "x3", Name: "x3"},
	}
	reader := &fakeTraversalReader{
		nodes: nodes,
		neighbors: map[string][]TraversalEdge{
			"root": {
				{RelationshipType: "CALLS", Target: nodes["x1"]},
				{RelationshipType: "CALLS", Target: nodes["x2"]},
				{RelationshipType: "CALLS", Target: nodes["x3"]},
			},
		},
	}
	engine := NewTraversalEngine(reader)
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 5, Limit: 2})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	chain := result.Depths[0].Chains[0]
	if chain.TruncatedTo != 2 || chain.TotalCount != 3 {
		t.Errorf("chain = %+v, want TruncatedTo=2 TotalCount=3", chain)
	}
}

func TestTraversalEngine_TraverseFromNode_MissingStartNode(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	if _, err := engine.TraverseFromNode(context.Background(), "missing", TraversalOptions{}); err == nil {
		t.Fatal("expected an error for a nonexistent start node")
	}
}

func TestTraversalResult_Report_RendersLayeredOutput(t *testing.T) {
	engine := NewTraversalEngine(newFakeTraversalReader())
	result, err := engine.TraverseFromNode(context.Background(), "root", TraversalOptions{MaxDepth: 5, Title: "blast radius"})
	if err != nil {
		t.Fatalf("TraverseFromNode: %v", err)
	}
	report := result.Report()
	if report == "" {
		t.Fatal("expected a non-empty report")
	}
	if !strings.Contains(report, "blast radius") || !strings.Contains(report, "Depth 1") || !strings.Contains(report, "Depth 2") {
		t.Errorf("report missing expected sections:\n%s", report)
	}
}
