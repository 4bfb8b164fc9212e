// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"fmt"

	"github.com/kraklabs/graphcore/internal/analysis"
)

// AnalysisStore adapts Store's Cypher access to the narrow reader
// interfaces internal/analysis declares for itself (ImpactReader,
// DeadCodeReader, TraversalReader). It is a thin wrapper rather than a
// fourth top-level type because every method still needs the projectID
// the analysis package's interfaces don't carry.
type AnalysisStore struct {
	Store     *Store
	ProjectID string
}

// NewAnalysisStore scopes a Store to a single project for analysis reads.
func NewAnalysisStore(store *Store, projectID string) *AnalysisStore {
	return &AnalysisStore{Store: store, ProjectID: projectID}
}

func rowsToNodes(result *QueryResult) []analysis.Node {
	nodes := make([]analysis.Node, 0, len(result.Rows))
	for _, row := range result.Rows {
		nodes = append(nodes, rowToNode(row))
	}
	return nodes
}

// rowToNode expects columns in the order id, name, coreType, semanticType,
// filePath, lineNumber — the projection every analysis query below uses.
func rowToNode(row []any) analysis.Node {
	return analysis.Node{
		ID:           fmt.Sprint(row[0]),
		Name:         fmt.Sprint(row[1]),
		CoreType:     fmt.Sprint(row[2]),
		SemanticType: fmt.Sprint(row[3]),
		FilePath:     fmt.Sprint(row[4]),
		LineNumber:   int(toInt64(row[5])),
	}
}

// nodeProjection returns the column list every analysis query below
// RETURNs, against the given match-variable alias.
func nodeProjection(alias string) string {
	return fmt.Sprintf("%s.id, %s.name, %s.coreType, %s.semanticType, %s.filePath, %s.lineNumber",
		alias, alias, alias, alias, alias, alias)
}

// --- analysis.ImpactReader --------------------------------------------------

func (a *AnalysisStore) ResolveTargetNodes(ctx context.Context, target string) ([]analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {projectId: $projectId})
		WHERE n.id = $target
		   OR (n.filePath = $target AND n.coreType IN ['Class', 'Function', 'Interface'])
		RETURN %s
	`, nodeProjection("n")), map[string]any{"projectId": a.ProjectID, "target": target})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(result), nil
}

func (a *AnalysisStore) DirectDependents(ctx context.Context, nodeID string) ([]analysis.DependentNode, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n {id: $nodeId})<-[r]-(dep:CodeNode {projectId: $projectId})
		RETURN %s, type(r)
	`, nodeProjection("dep")), map[string]any{"nodeId": nodeID, "projectId": a.ProjectID})
	if err != nil {
		return nil, err
	}
	return rowsToDependentNodes(result), nil
}

func (a *AnalysisStore) TransitiveDependents(ctx context.Context, nodeID string, maxDepth int) ([]analysis.DependentNode, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n {id: $nodeId})<-[r*1..%d]-(dep:CodeNode {projectId: $projectId})
		WITH DISTINCT dep, last(r) AS lastRel
		RETURN %s, type(lastRel)
	`, maxDepth, nodeProjection("dep")), map[string]any{"nodeId": nodeID, "projectId": a.ProjectID})
	if err != nil {
		return nil, err
	}
	return rowsToDependentNodes(result), nil
}

func rowsToDependentNodes(result *QueryResult) []analysis.DependentNode {
	deps := make([]analysis.DependentNode, 0, len(result.Rows))
	for _, row := range result.Rows {
		deps = append(deps, analysis.DependentNode{
			Node:             rowToNode(row[:6]),
			RelationshipType: fmt.Sprint(row[6]),
		})
	}
	return deps
}

// --- analysis.DeadCodeReader -------------------------------------------------

func (a *AnalysisStore) UnreferencedExports(ctx context.Context, projectID string) ([]analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {projectId: $projectId, isExported: true})
		WHERE NOT (n)<-[:IMPORTS]-()
		RETURN %s
	`, nodeProjection("n")), map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(result), nil
}

func (a *AnalysisStore) UncalledPrivateMethods(ctx context.Context, projectID string) ([]analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {projectId: $projectId, isExported: false, coreType: 'Function'})
		WHERE NOT (n)<-[:CALLS]-()
		RETURN %s
	`, nodeProjection("n")), map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(result), nil
}

func (a *AnalysisStore) UnreferencedInterfaces(ctx context.Context, projectID string) ([]analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {projectId: $projectId, coreType: 'Interface'})
		WHERE NOT (n)<-[:IMPLEMENTS|TYPED_AS]-()
		RETURN %s
	`, nodeProjection("n")), map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(result), nil
}

func (a *AnalysisStore) FrameworkEntryPoints(ctx context.Context, projectID string) ([]analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {projectId: $projectId})
		WHERE n.semanticType IN ['route-handler', 'lifecycle-hook', 'entry-point', 'middleware']
		RETURN %s
	`, nodeProjection("n")), map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(result), nil
}

// --- analysis.TraversalReader ------------------------------------------------

func (a *AnalysisStore) GetNode(ctx context.Context, nodeID string) (*analysis.Node, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n:CodeNode {id: $id, projectId: $projectId})
		RETURN %s
	`, nodeProjection("n")), map[string]any{"id": nodeID, "projectId": a.ProjectID})
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}
	n := rowToNode(result.Rows[0])
	return &n, nil
}

func (a *AnalysisStore) Neighbors(ctx context.Context, nodeID string) ([]analysis.TraversalEdge, error) {
	result, err := a.Store.Backend.Query(ctx, fmt.Sprintf(`
		MATCH (n {id: $id})-[r]->(target:CodeNode {projectId: $projectId})
		RETURN %s, type(r)
	`, nodeProjection("target")), map[string]any{"id": nodeID, "projectId": a.ProjectID})
	if err != nil {
		return nil, err
	}
	edges := make([]analysis.TraversalEdge, 0, len(result.Rows))
	for _, row := range result.Rows {
		edges = append(edges, analysis.TraversalEdge{
			Target:           rowToNode(row[:6]),
			RelationshipType: fmt.Sprint(row[6]),
		})
	}
	return edges, nil
}
