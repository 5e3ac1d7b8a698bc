package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
)

// VectorStore handles pgvector-specific operations for embedding records.
//
// Every read and write is scoped by project_id; no unscoped access to the
// embeddings table exists. That filter is the tenant-isolation boundary.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// InsertRecord persists the textual half of a record and returns its id.
// The vector is attached in a second write so a malformed vector can never
// corrupt the text row.
func (v *VectorStore) InsertRecord(ctx context.Context, r *domain.EmbeddingRecord) (string, error) {
	query := `INSERT INTO embeddings (project_id, file_name, source_code, summary, embedding_model)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	var id string
	err := v.store.db.QueryRowContext(ctx, query,
		r.ProjectID, r.FileName, r.SourceCode, r.Summary, r.EmbeddingModel,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// AttachVector fills in the embedding column for an existing record.
// If this write fails the record stays behind with a null vector; queries
// exclude such rows, so it is unsearchable but harmless.
func (v *VectorStore) AttachVector(ctx context.Context, id string, vec []float32) error {
	query := `UPDATE embeddings SET embedding = $1::vector WHERE id = $2`
	if _, err := v.store.db.ExecContext(ctx, query, vectorToString(vec), id); err != nil {
		return fmt.Errorf("attach vector: %w", err)
	}
	return nil
}

// CountRecords returns the number of embedding records stored for a project.
// Used to distinguish "never indexed" from "indexed but no relevant match".
func (v *VectorStore) CountRecords(ctx context.Context, projectID string) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE project_id = $1`, projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Query performs a cosine similarity search scoped to a single project.
// Only rows with a non-null vector produced by the given embedding model are
// compared; rows at or below the threshold are excluded.
func (v *VectorStore) Query(ctx context.Context, projectID string, queryVector []float32, model string, threshold float64, limit int) ([]domain.QueryResult, error) {
	vectorStr := vectorToString(queryVector)
	query := `SELECT file_name, source_code, summary,
	                 1 - (embedding <=> $1::vector) AS similarity
	          FROM embeddings
	          WHERE project_id = $2
	            AND embedding IS NOT NULL
	            AND embedding_model = $3
	            AND 1 - (embedding <=> $1::vector) > $4
	          ORDER BY similarity DESC
	          LIMIT $5`

	rows, err := v.store.db.QueryContext(ctx, query, vectorStr, projectID, model, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult
	for rows.Next() {
		var r domain.QueryResult
		if err := rows.Scan(&r.FileName, &r.SourceCode, &r.Summary, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// DeleteByProject deletes all embedding records for a project.
func (v *VectorStore) DeleteByProject(ctx context.Context, projectID string) error {
	query := `DELETE FROM embeddings WHERE project_id = $1`
	_, err := v.store.db.ExecContext(ctx, query, projectID)
	return err
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
