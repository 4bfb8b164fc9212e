// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/kraklabs/graphcore/internal/changedetect"
	"github.com/kraklabs/graphcore/pkg/astparser"
)

// Store adapts a Backend into the typed graph operations the parse
// coordinator and the analysis engines need. It is the one production
// implementation of internal/parse.Store; the narrower reader interfaces
// internal/analysis defines for itself are implemented by AnalysisStore,
// which wraps a Store.
type Store struct {
	Backend Backend
}

// New wraps an already-open Backend.
func New(backend Backend) *Store {
	return &Store{Backend: backend}
}

// --- internal/parse.Store -------------------------------------------------

// ClearProject deletes every node and edge owned by a project, leaving the
// Project row itself untouched (the coordinator re-upserts it next).
func (s *Store) ClearProject(ctx context.Context, projectID string) error {
	return s.Backend.Execute(ctx,
		`MATCH (n:CodeNode {projectId: $projectId}) DETACH DELETE n`,
		map[string]any{"projectId": projectID})
}

// UpsertProject creates or updates the Project row.
func (s *Store) UpsertProject(ctx context.Context, projectID, path, name, status string) error {
	return s.Backend.Execute(ctx, `
		MERGE (p:Project {id: $id})
		SET p.path = $path,
		    p.name = coalesce($name, p.name, ''),
		    p.status = $status,
		    p.updatedAt = timestamp()
	`, map[string]any{"id": projectID, "path": path, "name": name, "status": status})
}

// UpdateProjectStatus sets the project's terminal (or transitional) status
// and final node/edge counts.
func (s *Store) UpdateProjectStatus(ctx context.Context, projectID, status string, nodeCount, edgeCount int) error {
	return s.Backend.Execute(ctx, `
		MATCH (p:Project {id: $id})
		SET p.status = $status, p.nodeCount = $nodeCount, p.edgeCount = $edgeCount, p.updatedAt = timestamp()
	`, map[string]any{"id": projectID, "status": status, "nodeCount": nodeCount, "edgeCount": edgeCount})
}

// defaultImportBatchRows bounds how many rows a single UNWIND statement
// carries. Splitting large imports into batches keeps any one Cypher
// statement's parameter payload well under Neo4j's transaction memory
// budget, the same target-count-per-statement idea the teacher's ingestion
// pipeline used to keep CozoDB script size bounded.
const defaultImportBatchRows = 500

// importBatchRows returns defaultImportBatchRows, overridable via
// GRAPHCORE_IMPORT_BATCH_ROWS for environments with tighter transaction
// memory limits.
func importBatchRows() int {
	if v := os.Getenv("GRAPHCORE_IMPORT_BATCH_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultImportBatchRows
}

// ImportNodes upserts a batch of CodeNodes, owned by the given project, in
// chunks of importBatchRows() to bound each statement's payload size.
func (s *Store) ImportNodes(ctx context.Context, projectID string, nodes []astparser.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	batchSize := importBatchRows()
	for start := 0; start < len(nodes); start += batchSize {
		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		if err := s.importNodeBatch(ctx, projectID, nodes[start:end]); err != nil {
			return fmt.Errorf("import nodes [%d:%d] of %d: %w", start, end, len(nodes), err)
		}
	}
	return nil
}

func (s *Store) importNodeBatch(ctx context.Context, projectID string, nodes []astparser.Node) error {
	rows := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		rows[i] = map[string]any{
			"id":           n.ID,
			"name":         n.Name,
			"labels":       n.Labels,
			"coreType":     n.CoreType,
			"semanticType": n.SemanticType,
			"filePath":     n.FilePath,
			"lineNumber":   n.LineNumber,
			"sourceCode":   n.SourceCode,
			"visibility":   n.Visibility,
			"isExported":   n.IsExported,
		}
	}
	return s.Backend.Execute(ctx, `
		UNWIND $rows AS row
		MERGE (n:CodeNode {id: row.id})
		SET n.projectId = $projectId,
		    n.name = row.name,
		    n.labels = row.labels,
		    n.coreType = row.coreType,
		    n.semanticType = row.semanticType,
		    n.filePath = row.filePath,
		    n.lineNumber = row.lineNumber,
		    n.sourceCode = row.sourceCode,
		    n.visibility = row.visibility,
		    n.isExported = row.isExported
	`, map[string]any{"projectId": projectID, "rows": rows})
}

// relTypePattern guards dynamic relationship-type interpolation: Cypher has
// no way to parameterise a relationship type, so relationshipType values
// (which come from the AST parser's fixed vocabulary, e.g. CALLS, EXTENDS —
// never from untrusted input) are validated against an identifier shape
// before being spliced into the query text.
var relTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ImportEdges upserts a batch of CodeEdges, grouped by relationship type
// since Cypher relationship types cannot be parameterised.
func (s *Store) ImportEdges(ctx context.Context, projectID string, edges []astparser.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	byType := make(map[string][]map[string]any)
	for _, e := range edges {
		if !relTypePattern.MatchString(e.RelationshipType) {
			return fmt.Errorf("invalid relationship type %q", e.RelationshipType)
		}
		byType[e.RelationshipType] = append(byType[e.RelationshipType], map[string]any{
			"id":         e.ID,
			"source":     e.SourceNodeID,
			"target":     e.TargetNodeID,
			"direction":  e.Direction,
			"confidence": e.Confidence,
			"source_tag": e.Source,
			"properties": e.Properties,
		})
	}
	batchSize := importBatchRows()
	for relType, rows := range byType {
		cypher := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (src:CodeNode {id: row.source})
			MATCH (tgt:CodeNode {id: row.target})
			MERGE (src)-[r:%s {id: row.id}]->(tgt)
			SET r.direction = row.direction,
			    r.confidence = row.confidence,
			    r.source = row.source_tag,
			    r.properties = row.properties,
			    r.createdAt = coalesce(r.createdAt, timestamp())
		`, relType)
		for start := 0; start < len(rows); start += batchSize {
			end := start + batchSize
			if end > len(rows) {
				end = len(rows)
			}
			if err := s.Backend.Execute(ctx, cypher, map[string]any{"rows": rows[start:end]}); err != nil {
				return fmt.Errorf("import %s edges [%d:%d] of %d: %w", relType, start, end, len(rows), err)
			}
		}
	}
	return nil
}

// DeleteFileSubgraphs removes every node owned by the given files.
func (s *Store) DeleteFileSubgraphs(ctx context.Context, projectID string, filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}
	return s.Backend.Execute(ctx, `
		MATCH (n:CodeNode {projectId: $projectId})
		WHERE n.filePath IN $filePaths
		DETACH DELETE n
	`, map[string]any{"projectId": projectID, "filePaths": filePaths})
}

// --- changedetect.Snapshot -------------------------------------------------

// ProjectSnapshot adapts a Store + projectID into changedetect.Snapshot,
// whose interface takes no arguments of its own.
type ProjectSnapshot struct {
	Store     *Store
	ProjectID string
	Ctx       context.Context
}

// IndexedFiles implements changedetect.Snapshot by reading the IndexedFile
// rows recorded for a project during its last parse.
func (p ProjectSnapshot) IndexedFiles() (map[string]changedetect.IndexedFile, error) {
	result, err := p.Store.Backend.Query(p.Ctx, `
		MATCH (f:IndexedFile {projectId: $projectId})
		RETURN f.filePath AS filePath, f.modTimeUnixNano AS modTime, f.size AS size, f.contentHash AS hash
	`, map[string]any{"projectId": p.ProjectID})
	if err != nil {
		return nil, err
	}
	out := make(map[string]changedetect.IndexedFile, len(result.Rows))
	for _, row := range result.Rows {
		fp, _ := row[0].(string)
		out[fp] = changedetect.IndexedFile{
			FilePath:        fp,
			ModTimeUnixNano: toInt64(row[1]),
			Size:            toInt64(row[2]),
			ContentHash:     fmt.Sprint(row[3]),
		}
	}
	return out, nil
}

// RecordIndexedFiles persists the IndexedFile rows for a project so the next
// parse's change detector can diff against them.
func (s *Store) RecordIndexedFiles(ctx context.Context, projectID string, files map[string]changedetect.IndexedFile) error {
	rows := make([]map[string]any, 0, len(files))
	for _, f := range files {
		rows = append(rows, map[string]any{
			"filePath": f.FilePath, "modTime": f.ModTimeUnixNano, "size": f.Size, "hash": f.ContentHash,
		})
	}
	return s.Backend.Execute(ctx, `
		UNWIND $rows AS row
		MERGE (f:IndexedFile {projectId: $projectId, filePath: row.filePath})
		SET f.modTimeUnixNano = row.modTime, f.size = row.size, f.contentHash = row.hash
	`, map[string]any{"projectId": projectID, "rows": rows})
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
