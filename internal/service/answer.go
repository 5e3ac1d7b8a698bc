package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
)

// Retrieval policy defaults. Callers of the store supply these explicitly;
// the store itself carries no policy.
const (
	DefaultSimilarityThreshold = 0.3
	DefaultQueryLimit          = 15
	DefaultContextCharBudget   = 24000
)

// RecordSearcher is the slice of the vector store the answerer needs.
// Implemented by store.VectorStore.
type RecordSearcher interface {
	CountRecords(ctx context.Context, projectID string) (int, error)
	Query(ctx context.Context, projectID string, vec []float32, model string, threshold float64, limit int) ([]domain.QueryResult, error)
}

const answerSystemPrompt = `You are an expert engineer who knows this codebase inside out.
Answer the question using only the provided file context, in markdown, and name the
files you base your answer on. If the context states that no files are indexed or that
nothing matched, relay that to the user plainly instead of guessing an answer.`

// Answerer runs retrieval-augmented answering over a project's indexed files.
type Answerer struct {
	ai        port.AIProvider
	index     RecordSearcher
	threshold float64
	limit     int
	budget    int // max context characters fed to generation
}

// NewAnswerer creates an answerer. Zero values fall back to the policy defaults.
func NewAnswerer(ai port.AIProvider, index RecordSearcher, threshold float64, limit, budget int) *Answerer {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if budget <= 0 {
		budget = DefaultContextCharBudget
	}
	return &Answerer{ai: ai, index: index, threshold: threshold, limit: limit, budget: budget}
}

// Ask answers a free-text question against a project's indexed files.
//
// It never returns an error: any failure along the way is converted into a
// single-chunk diagnostic markdown answer so the caller always has something
// to render. The returned evidence list corresponds exactly to the results
// whose text entered the generation context for this call.
func (a *Answerer) Ask(ctx context.Context, projectID, question string) (<-chan string, []domain.QueryResult) {
	vector, err := a.ai.Embed(ctx, question)
	if err != nil {
		return diagnosticAnswer(projectID, question, fmt.Errorf("embed question: %w", err)), nil
	}

	count, err := a.index.CountRecords(ctx, projectID)
	if err != nil {
		return diagnosticAnswer(projectID, question, fmt.Errorf("count records: %w", err)), nil
	}

	results, err := a.index.Query(ctx, projectID, vector, a.ai.EmbedModel(), a.threshold, a.limit)
	if err != nil {
		return diagnosticAnswer(projectID, question, fmt.Errorf("query records: %w", err)), nil
	}

	contextStr, evidence := a.buildContext(count, results)
	prompt := fmt.Sprintf("Context from the repository:\n%s\nQuestion: %s", contextStr, question)

	stream, err := a.ai.GenerateStream(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return diagnosticAnswer(projectID, question, fmt.Errorf("generate answer: %w", err)), nil
	}
	return stream, evidence
}

// buildContext assembles the generation context from retrieved results under
// the character budget, highest similarity first. A result that overflows the
// remaining budget is truncated; anything after it is dropped. Results whose
// text entered the context (whole or truncated) form the evidence list.
//
// With zero results the context is a diagnostic sentence instead of an empty
// string, so the generation step explains the situation rather than
// hallucinating an answer.
func (a *Answerer) buildContext(count int, results []domain.QueryResult) (string, []domain.QueryResult) {
	if len(results) == 0 {
		if count == 0 {
			return "No files have been indexed for this project yet. There are no embeddings to search, so no source context is available.\n", nil
		}
		return fmt.Sprintf("This project has %d indexed files, but no close match was found for the question. No source context is available.\n", count), nil
	}

	var sb strings.Builder
	var evidence []domain.QueryResult
	remaining := a.budget
	for _, r := range results {
		if remaining <= 0 {
			break
		}
		section := fmt.Sprintf("### File: %s\nSummary: %s\n\nSource:\n%s\n\n", r.FileName, r.Summary, r.SourceCode)
		if len(section) > remaining {
			section = section[:remaining]
		}
		sb.WriteString(section)
		remaining -= len(section)
		evidence = append(evidence, r)
	}
	return sb.String(), evidence
}

// diagnosticAnswer wraps a failure into a one-chunk markdown answer so the
// caller-facing contract never surfaces a bare error.
func diagnosticAnswer(projectID, question string, err error) <-chan string {
	ch := make(chan string, 1)
	ch <- fmt.Sprintf(`## Something went wrong

I could not answer this question.

- **Project**: %s
- **Question**: %s
- **Error**: %v

Please try again. If the problem persists, check the indexing status of this project.
`, projectID, question, err)
	close(ch)
	return ch
}
