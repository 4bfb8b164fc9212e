// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// DependentNode is a node found while walking dependents of a target, along
// with the relationship type that ties it to whatever it depends on.
type DependentNode struct {
	Node             Node
	RelationshipType string
}

// ImpactReader is the graph access the Impact Engine needs. Implementations
// live in pkg/graphstore; this interface is declared here, by the consumer,
// so the engine can be tested against a hand-rolled fake.
type ImpactReader interface {
	// ResolveTargetNodes turns a target string into the node(s) it names.
	// A node id resolves to itself; a file path resolves to every
	// Class/Function/Interface node declared in that file.
	ResolveTargetNodes(ctx context.Context, target string) ([]Node, error)

	// DirectDependents returns nodes with a direct edge onto nodeID, with
	// the relationship type of that edge.
	DirectDependents(ctx context.Context, nodeID string) ([]DependentNode, error)

	// TransitiveDependents returns nodes reachable as dependents of nodeID
	// within maxDepth hops, excluding nodeID itself.
	TransitiveDependents(ctx context.Context, nodeID string, maxDepth int) ([]DependentNode, error)
}

// DefaultRelationshipWeights are the "what breaks if I modify this?"
// severities: inheritance is a hard contract, calls are looser, containment
// is loosest. Traversal (C10) and dead-code (C9) do not use these weights.
var DefaultRelationshipWeights = map[string]float64{
	"EXTENDS":        0.95,
	"IMPLEMENTS":     0.95,
	"CALLS":          0.75,
	"HAS_MEMBER":     0.65,
	"TYPED_AS":       0.60,
	"IMPORTS":        0.50,
	"EXPORTS":        0.50,
	"DECORATED_WITH": 0.40,
	"CONTAINS":       0.30,
	"HAS_PARAMETER":  0.30,
}

// defaultHighRiskTypes answers "is this a hard-contract relationship" for
// the risk score's highRiskTypeHits term — the inheritance relations the
// weight table's own rationale singles out.
var defaultHighRiskTypes = map[string]bool{"EXTENDS": true, "IMPLEMENTS": true}

// RiskLevel buckets a [0,1] impact score.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

func levelForScore(score float64) RiskLevel {
	switch {
	case score >= 0.75:
		return RiskCritical
	case score >= 0.5:
		return RiskHigh
	case score >= 0.25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CriticalPathEdge is one high-weight direct dependency, pre-formatted for
// display.
type CriticalPathEdge struct {
	DependentName     string
	DependentCoreType string
	RelationshipType  string
	TargetName        string
	TargetCoreType    string
	Weight            float64
}

func (e CriticalPathEdge) String() string {
	return fmt.Sprintf("%s (%s) -[%s]-> %s (%s)",
		e.DependentName, e.DependentCoreType, e.RelationshipType, e.TargetName, e.TargetCoreType)
}

// ImpactResult is the outcome of analyzing a target.
type ImpactResult struct {
	Target          []Node
	DirectCount     int
	TransitiveCount int
	Score           float64
	Level           RiskLevel
	CriticalPaths   []CriticalPathEdge
}

// ImpactEngine implements C8: "what breaks if I modify this?"
type ImpactEngine struct {
	Reader        ImpactReader
	Weights       map[string]float64
	HighRiskTypes map[string]bool
}

// NewImpactEngine builds an engine with the default relationship weights.
func NewImpactEngine(reader ImpactReader) *ImpactEngine {
	return &ImpactEngine{Reader: reader, Weights: DefaultRelationshipWeights, HighRiskTypes: defaultHighRiskTypes}
}

// WithWeights returns a copy of the engine whose weight table has overrides
// merged over the defaults, per the caller-supplied frameworkConfig.
func (e *ImpactEngine) WithWeights(overrides map[string]float64) *ImpactEngine {
	merged := make(map[string]float64, len(e.Weights)+len(overrides))
	for k, v := range e.Weights {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &ImpactEngine{Reader: e.Reader, Weights: merged, HighRiskTypes: e.HighRiskTypes}
}

func (e *ImpactEngine) weightFor(relType string) float64 {
	return e.Weights[relType]
}

type directEntry struct {
	Dependent        Node
	RelationshipType string
	Weight           float64
	TargetID         string
}

// Analyze implements analyze(target, maxDepth, frameworkConfig). In
// file-mode, target resolves to several nodes; dependents are deduplicated
// by id across all of them, keeping the maximum weight seen for a duplicate.
func (e *ImpactEngine) Analyze(ctx context.Context, target string, maxDepth int) (*ImpactResult, error) {
	targets, err := e.Reader.ResolveTargetNodes(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("resolve target %q: %w", target, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("target %q not found", target)
	}
	targetByID := make(map[string]Node, len(targets))
	for _, t := range targets {
		targetByID[t.ID] = t
	}

	direct := make(map[string]directEntry)
	for _, t := range targets {
		deps, err := e.Reader.DirectDependents(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("direct dependents of %s: %w", t.ID, err)
		}
		for _, d := range deps {
			w := e.weightFor(d.RelationshipType)
			if existing, ok := direct[d.Node.ID]; !ok || w > existing.Weight {
				direct[d.Node.ID] = directEntry{Dependent: d.Node, RelationshipType: d.RelationshipType, Weight: w, TargetID: t.ID}
			}
		}
	}

	// File-mode re-uses only the first target's id for the transitive query,
	// matching the original engine's behaviour: when the file's entities have
	// disjoint dependent sets, the transitive report is incomplete. Preserved
	// as specified rather than fixed to loop over every target.
	transitive := make(map[string]DependentNode)
	deps, err := e.Reader.TransitiveDependents(ctx, targets[0].ID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("transitive dependents of %s: %w", targets[0].ID, err)
	}
	for _, d := range deps {
		if _, isDirect := direct[d.Node.ID]; isDirect {
			continue
		}
		transitive[d.Node.ID] = d
	}

	directCount := len(direct)
	transitiveCount := len(transitive)

	var weightSum float64
	var highRiskHits int
	for _, entry := range direct {
		weightSum += entry.Weight
		if e.HighRiskTypes[entry.RelationshipType] {
			highRiskHits++
		}
	}
	avgWeight := 0.0
	if directCount > 0 {
		avgWeight = weightSum / float64(directCount)
	}
	highRiskSet := float64(len(e.HighRiskTypes))

	score := math.Min(math.Log10(float64(directCount+1))/2, 0.3) +
		avgWeight*0.3 +
		math.Min(float64(highRiskHits)/math.Max(highRiskSet, 3), 1)*0.2 +
		math.Min(math.Log10(float64(transitiveCount+1))/3, 0.2)
	if score > 1 {
		score = 1
	}

	return &ImpactResult{
		Target:          targets,
		DirectCount:     directCount,
		TransitiveCount: transitiveCount,
		Score:           score,
		Level:           levelForScore(score),
		CriticalPaths:   criticalPaths(direct, targetByID),
	}, nil
}

// criticalPaths picks up to 10 direct dependency edges with weight >= 0.6,
// heaviest first.
func criticalPaths(direct map[string]directEntry, targetByID map[string]Node) []CriticalPathEdge {
	var edges []CriticalPathEdge
	for _, entry := range direct {
		if entry.Weight < 0.6 {
			continue
		}
		target := targetByID[entry.TargetID]
		edges = append(edges, CriticalPathEdge{
			DependentName:     entry.Dependent.Name,
			DependentCoreType: entry.Dependent.CoreType,
			RelationshipType:  entry.RelationshipType,
			TargetName:        target.Name,
			TargetCoreType:    target.CoreType,
			Weight:            entry.Weight,
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
	if len(edges) > 10 {
		edges = edges[:10]
	}
	return edges
}
