// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import "context"

// EmbeddingCandidate is a node whose source code is eligible for embedding:
// it has non-empty SourceCode and no stored vector yet. A node that already
// has a vector is not selected again, even if its SourceCode changed.
type EmbeddingCandidate struct {
	ID         string
	SourceCode string
}

// FunctionsNeedingEmbeddings returns Function nodes owned by projectID that
// have no embedding vector stored yet.
func (s *Store) FunctionsNeedingEmbeddings(ctx context.Context, projectID string) ([]EmbeddingCandidate, error) {
	result, err := s.Backend.Query(ctx, `
		MATCH (n:CodeNode {projectId: $projectId, coreType: 'function'})
		WHERE n.embedding IS NULL AND n.sourceCode IS NOT NULL AND n.sourceCode <> ''
		RETURN n.id AS id, n.sourceCode AS sourceCode
	`, map[string]any{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	out := make([]EmbeddingCandidate, 0, len(result.Rows))
	for _, row := range result.Rows {
		id, _ := row[0].(string)
		src, _ := row[1].(string)
		out = append(out, EmbeddingCandidate{ID: id, SourceCode: src})
	}
	return out, nil
}

// SetEmbeddings stores a computed vector for each node id, in batches of
// importBatchRows() like ImportNodes/ImportEdges.
func (s *Store) SetEmbeddings(ctx context.Context, embeddings map[string][]float32) error {
	if len(embeddings) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(embeddings))
	for id, vec := range embeddings {
		floats := make([]float64, len(vec))
		for i, v := range vec {
			floats[i] = float64(v)
		}
		rows = append(rows, map[string]any{"id": id, "embedding": floats})
	}
	batchSize := importBatchRows()
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.Backend.Execute(ctx, `
			UNWIND $rows AS row
			MATCH (n:CodeNode {id: row.id})
			SET n.embedding = row.embedding
		`, map[string]any{"rows": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}
