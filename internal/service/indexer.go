package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
)

// RecordWriter is the slice of the vector store the indexer needs: the
// two-phase write. Implemented by store.VectorStore.
type RecordWriter interface {
	InsertRecord(ctx context.Context, r *domain.EmbeddingRecord) (string, error)
	AttachVector(ctx context.Context, id string, vec []float32) error
}

// Indexer turns loaded documents into embedding records, best effort.
// Individual documents fail or get skipped without affecting their siblings;
// the pipeline as a whole never errors once documents exist.
type Indexer struct {
	ai      port.AIProvider
	loader  *SourceLoader
	records RecordWriter
	workers int
}

// NewIndexer creates an indexer with the given concurrent pipeline limit.
func NewIndexer(ai port.AIProvider, loader *SourceLoader, records RecordWriter, workers int) *Indexer {
	if workers <= 0 {
		workers = 4
	}
	return &Indexer{ai: ai, loader: loader, records: records, workers: workers}
}

// IndexRepository loads a remote repository and ingests every document into
// the project's index. Load-level failures (including port.ErrLoadTimeout)
// are the only errors returned; once documents exist, ingestion always
// completes and reports its coverage in the summary.
func (ix *Indexer) IndexRepository(ctx context.Context, projectID string, ref domain.RepoRef) (domain.IndexSummary, error) {
	docs, err := ix.loader.Load(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return domain.IndexSummary{}, err
	}
	return ix.IndexDocuments(ctx, projectID, docs), nil
}

// IndexDocuments runs the per-document pipeline over every document through a
// bounded worker pool and persists the successful ones.
func (ix *Indexer) IndexDocuments(ctx context.Context, projectID string, docs []domain.Document) domain.IndexSummary {
	outcomes := make([]domain.IndexOutcome, len(docs))
	sem := make(chan struct{}, ix.workers)

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc domain.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = ix.indexOne(ctx, projectID, doc)
		}(i, doc)
	}
	wg.Wait()

	summary := domain.IndexSummary{Total: len(docs), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case domain.OutcomeOK:
			summary.Succeeded++
		case domain.OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	slog.Info("ingestion complete", "project_id", projectID,
		"total", summary.Total, "succeeded", summary.Succeeded,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary
}

// indexOne runs summarize → embed → two-phase write for a single document.
// A panic anywhere in the pipeline becomes a failed outcome so one document
// can never take down its siblings.
func (ix *Indexer) indexOne(ctx context.Context, projectID string, doc domain.Document) (outcome domain.IndexOutcome) {
	outcome = domain.IndexOutcome{Path: doc.Path, Status: domain.OutcomeFailed}
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = domain.OutcomeFailed
			outcome.Reason = fmt.Sprintf("panic: %v", r)
			slog.Error("document pipeline panicked", "path", doc.Path, "panic", r)
		}
	}()

	summary, err := ix.ai.Summarize(ctx, doc.Path, doc.Content)
	if err != nil {
		outcome.Reason = fmt.Sprintf("summarize: %v", err)
		slog.Error("summarize failed", "path", doc.Path, "error", err)
		return outcome
	}
	if strings.TrimSpace(summary) == "" {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = "empty summary"
		return outcome
	}

	vector, err := ix.ai.Embed(ctx, summary)
	if err != nil {
		outcome.Reason = fmt.Sprintf("embed: %v", err)
		slog.Error("embed failed", "path", doc.Path, "error", err)
		return outcome
	}

	rec := &domain.EmbeddingRecord{
		ProjectID:      projectID,
		FileName:       doc.Path,
		SourceCode:     doc.Content,
		Summary:        summary,
		EmbeddingModel: ix.ai.EmbedModel(),
	}
	id, err := ix.records.InsertRecord(ctx, rec)
	if err != nil {
		outcome.Reason = fmt.Sprintf("insert record: %v", err)
		slog.Error("insert record failed", "path", doc.Path, "error", err)
		return outcome
	}

	if err := ix.records.AttachVector(ctx, id, vector); err != nil {
		// The text row stays behind with a null vector; retrieval ignores it.
		outcome.Reason = fmt.Sprintf("attach vector: %v", err)
		slog.Error("attach vector failed", "path", doc.Path, "record_id", id, "error", err)
		return outcome
	}

	outcome.Status = domain.OutcomeOK
	outcome.Reason = ""
	return outcome
}
