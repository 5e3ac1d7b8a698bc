package domain

import "time"

// Document is an in-memory (path, content) pair derived from one repository file.
// Documents are transient: they exist only between loading and ingestion.
type Document struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// EmbeddingRecord is the persisted unit combining a document's text, its summary,
// and its vector. The vector is nil until attached in a second write, so a row
// can legitimately exist without one; retrieval never sees such rows.
type EmbeddingRecord struct {
	ID             string    `json:"id"              db:"id"`
	ProjectID      string    `json:"project_id"      db:"project_id"`
	FileName       string    `json:"file_name"       db:"file_name"`
	SourceCode     string    `json:"source_code"     db:"source_code"`
	Summary        string    `json:"summary"         db:"summary"`
	EmbeddingModel string    `json:"embedding_model" db:"embedding_model"`
	Embedding      []float32 `json:"-"               db:"embedding"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}

// QueryResult is one similarity hit returned by the vector store.
// It is computed per question and never persisted.
type QueryResult struct {
	FileName   string  `json:"file_name"`
	SourceCode string  `json:"source_code"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}
