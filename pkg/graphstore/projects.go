// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import "context"

// ProjectInfo is one row of ListProjects' output: a Project node's
// bookkeeping fields as last written by UpsertProject/UpdateProjectStatus.
type ProjectInfo struct {
	ID        string
	Path      string
	Status    string
	NodeCount int64
	EdgeCount int64
}

// ListProjects returns every Project node, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	result, err := s.Backend.Query(ctx, `
		MATCH (p:Project)
		RETURN p.id AS id, p.path AS path, p.status AS status,
		       coalesce(p.nodeCount, 0) AS nodeCount, coalesce(p.edgeCount, 0) AS edgeCount
		ORDER BY p.updatedAt DESC
	`, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		id, _ := row[0].(string)
		path, _ := row[1].(string)
		status, _ := row[2].(string)
		out = append(out, ProjectInfo{
			ID: id, Path: path, Status: status,
			NodeCount: toInt64(row[3]),
			EdgeCount: toInt64(row[4]),
		})
	}
	return out, nil
}

// ProjectCounts reports live entity counts for a project, independent of the
// (possibly stale) bookkeeping fields UpdateProjectStatus last wrote.
type ProjectCounts struct {
	Files     int64
	Functions int64
	Types     int64
	CallEdges int64
}

// CountEntities queries live node/edge counts for a project by coreType and
// relationship type, for the status command's display.
func (s *Store) CountEntities(ctx context.Context, projectID string) (*ProjectCounts, error) {
	result, err := s.Backend.Query(ctx, `
		MATCH (n:CodeNode {projectId: $projectId})
		WITH count(CASE WHEN n.coreType = 'file' THEN 1 END) AS files,
		     count(CASE WHEN n.coreType = 'function' THEN 1 END) AS functions,
		     count(CASE WHEN n.coreType = 'type' OR n.coreType = 'class' OR n.coreType = 'interface' THEN 1 END) AS types
		OPTIONAL MATCH (:CodeNode {projectId: $projectId})-[c:CALLS]->(:CodeNode {projectId: $projectId})
		RETURN files, functions, types, count(c) AS callEdges
	`, map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return &ProjectCounts{}, nil
	}
	row := result.Rows[0]
	return &ProjectCounts{
		Files:     toInt64(row[0]),
		Functions: toInt64(row[1]),
		Types:     toInt64(row[2]),
		CallEdges: toInt64(row[3]),
	}, nil
}
