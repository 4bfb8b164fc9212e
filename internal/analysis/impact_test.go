// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analysis

import (
	"context"
	"testing"
)

type fakeImpactReader struct {
	targets    map[string][]Node
	direct     map[string][]DependentNode
	transitive map[string][]DependentNode
}

func (f *fakeImpactReader) ResolveTargetNodes(ctx context.Context, target string) ([]Node, error) {
	return f.targets[target], nil
}

func (f *fakeImpactReader) DirectDependents(ctx context.Context, nodeID string) ([]DependentNode, error) {
	return f.direct[nodeID], nil
}

func (f *fakeImpactReader) TransitiveDependents(ctx context.Context, nodeID string, maxDepth int) ([]DependentNode, error) {
	return f.transitive[nodeID], nil
}

func TestImpactEngine_Analyze_NodeMode(t *testing.T) {
	reader := &fakeImpactReader{
		targets: map[string][]Node{
			"n1": {{ID: "n1", Name: "Base", CoreType: "Class"}},
		},
		direct: map[string][]DependentNode{
			"n1": {
				{Node: Node{ID: "d1", Name: "Sub", CoreType: "Class"}, RelationshipType: "EXTENDS"},
				{Node: Node{ID: "d2", Name: "caller", CoreType: "Function"}, RelationshipType: "CALLS"},
			},
		},
		transitive: map[string][]DependentNode{
			"n1": {
				{Node: Node{ID: "d1", Name: "Sub", CoreType: "Class"}, RelationshipType: "EXTENDS"},
				{Node: Node{ID: "t1", Name: "indirect", CoreType: "Function"}, RelationshipType: "CALLS"},
			},
		},
	}

	engine := NewImpactEngine(reader)
	result, err := engine.Analyze(context.Background(), "n1", 5)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.DirectCount != 2 {
		t.Errorf("DirectCount = %d, want 2", result.DirectCount)
	}
	// t1 is the only transitive dependent not already in the direct set (d1 is excluded).
	if result.TransitiveCount != 1 {
		t.Errorf("TransitiveCount = %d, want 1", result.TransitiveCount)
	}
	if result.Score <= 0 || result.Score > 1 {
		t.Errorf("Score = %v, want within (0,1]", result.Score)
	}
	if len(result.CriticalPaths) != 2 || result.CriticalPaths[0].RelationshipType != "EXTENDS" || result.CriticalPaths[1].RelationshipType != "CALLS" {
		t.Errorf("CriticalPaths = %+v, want the EXTENDS edge (0.95) then the CALLS edge (0.75), both >= 0.6", result.CriticalPaths)
	}
}

func TestImpactEngine_Analyze_FileModeDedupesByMaxWeight(t *testing.T) {
	reader := &fakeImpactReader{
		targets: map[string][]Node{
			"a.go": {
				{ID: "n1", Name: "Foo", CoreType: "Function", FilePath: "a.go"},
				{ID: "n2", Name: "Bar", CoreType: "Function", FilePath: "a.go"},
			},
		},
		direct: map[string][]DependentNode{
			"n1": {{Node: Node{ID: "d1", Name: "caller"}, RelationshipType: "CALLS"}},
			"n2": {{Node: Node{ID: "d1", Name: "caller"}, RelationshipType: "EXTENDS"}},
		},
		transitive: map[string][]DependentNode{},
	}

	engine := NewImpactEngine(reader)
	result, err := engine.Analyze(context.Background(), "a.go", 5)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.DirectCount != 1 {
		t.Fatalf("DirectCount = %d, want 1 (d1 deduplicated across n1 and n2)", result.DirectCount)
	}
	if len(result.CriticalPaths) != 1 || result.CriticalPaths[0].RelationshipType != "EXTENDS" {
		t.Errorf("expected the deduplicated entry to keep the higher EXTENDS weight, got %+v", result.CriticalPaths)
	}
}

func TestImpactEngine_Analyze_FileModeTransitiveOnlyQueriesFirstEntity(t *testing.T) {
	reader := &fakeImpactReader{
		targets: map[string][]Node{
			"a.go": {
				{ID: "n1", Name: "Foo", CoreType: "Function", FilePath: "a.go"},
				{ID: "n2", Name: "Bar", CoreType: "Function", FilePath: "a.go"},
			},
		},
		direct: map[string][]DependentNode{},
		transitive: map[string][]DependentNode{
			"n1": {{Node: Node{ID: "t1", Name: "indirect"}, RelationshipType: "CALLS"}},
			"n2": {{Node: Node{ID: "t2", Name: "also-indirect"}, RelationshipType: "CALLS"}},
		},
	}

	engine := NewImpactEngine(reader)
	result, err := engine.Analyze(context.Background(), "a.go", 5)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// n2's transitive set (t2) is never queried: the original engine re-uses
	// only the first resolved entity's id, so the report is incomplete when
	// entities have disjoint dependent sets.
	if result.TransitiveCount != 1 {
		t.Errorf("TransitiveCount = %d, want 1 (only n1's transitive set is queried)", result.TransitiveCount)
	}
}

func TestImpactEngine_Analyze_UnknownTarget(t *testing.T) {
	engine := NewImpactEngine(&fakeImpactReader{targets: map[string][]Node{}})
	if _, err := engine.Analyze(context.Background(), "missing", 5); err == nil {
		t.Fatal("expected an error for an unresolvable target")
	}
}

func TestImpactEngine_WithWeights_OverridesDefault(t *testing.T) {
	reader := &fakeImpactReader{
		targets: map[string][]Node{"n1": {{ID: "n1", Name: "Base"}}},
		direct: map[string][]DependentNode{
			"n1": {{Node: Node{ID: "d1", Name: "caller"}, RelationshipType: "CALLS"}},
		},
		transitive: map[string][]DependentNode{},
	}
	base := NewImpactEngine(reader)
	overridden := base.WithWeights(map[string]float64{"CALLS": 0.1})

	baseResult, _ := base.Analyze(context.Background(), "n1", 5)
	overriddenResult, _ := overridden.Analyze(context.Background(), "n1", 5)
	if overriddenResult.Score >= baseResult.Score {
		t.Errorf("expected a lower CALLS weight to lower the score: base=%v overridden=%v", baseResult.Score, overriddenResult.Score)
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0.9, RiskCritical},
		{0.75, RiskCritical},
		{0.6, RiskHigh},
		{0.5, RiskHigh},
		{0.3, RiskMedium},
		{0.25, RiskMedium},
		{0.1, RiskLow},
	}
	for _, c := range cases {
		if got := levelForScore(c.score); got != c.want {
			t.Errorf("levelForScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}
