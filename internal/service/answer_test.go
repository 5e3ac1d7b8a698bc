package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
)

// fakeSearcher is an in-memory RecordSearcher that records the query arguments.
type fakeSearcher struct {
	count    int
	countErr error
	results  []domain.QueryResult
	queryErr error

	gotProject   string
	gotModel     string
	gotThreshold float64
	gotLimit     int
}

func (f *fakeSearcher) CountRecords(ctx context.Context, projectID string) (int, error) {
	return f.count, f.countErr
}

func (f *fakeSearcher) Query(ctx context.Context, projectID string, vec []float32, model string, threshold float64, limit int) ([]domain.QueryResult, error) {
	f.gotProject = projectID
	f.gotModel = model
	f.gotThreshold = threshold
	f.gotLimit = limit
	return f.results, f.queryErr
}

func collect(t *testing.T, stream <-chan string) string {
	t.Helper()
	var sb strings.Builder
	for chunk := range stream {
		sb.WriteString(chunk)
	}
	return sb.String()
}

func TestAskZeroIndexDiagnostic(t *testing.T) {
	ai := &fakeAI{echo: true}
	idx := &fakeSearcher{count: 0}
	a := NewAnswerer(ai, idx, 0, 0, 0)

	stream, evidence := a.Ask(context.Background(), "proj-1", "how does auth work?")
	answer := collect(t, stream)

	assert.Contains(t, answer, "No files have been indexed")
	assert.Empty(t, evidence)
}

func TestAskNoMatchDiagnostic(t *testing.T) {
	ai := &fakeAI{echo: true}
	idx := &fakeSearcher{count: 3}
	a := NewAnswerer(ai, idx, 0, 0, 0)

	stream, evidence := a.Ask(context.Background(), "proj-1", "how does auth work?")
	answer := collect(t, stream)

	assert.Contains(t, answer, "3 indexed files")
	assert.Contains(t, answer, "no close match")
	assert.Empty(t, evidence)
}

func TestAskGenerationErrorContained(t *testing.T) {
	ai := &fakeAI{genErr: errors.New("model exploded")}
	idx := &fakeSearcher{
		count:   2,
		results: []domain.QueryResult{{FileName: "main.go", Similarity: 0.9}},
	}
	a := NewAnswerer(ai, idx, 0, 0, 0)

	stream, evidence := a.Ask(context.Background(), "proj-1", "what does main do?")
	answer := collect(t, stream)

	assert.Contains(t, answer, "Something went wrong")
	assert.Contains(t, answer, "model exploded")
	assert.Contains(t, answer, "proj-1")
	assert.Empty(t, evidence)
}

func TestAskEmbedErrorContained(t *testing.T) {
	ai := &fakeAI{embedErr: errors.New("embed service down")}
	a := NewAnswerer(ai, &fakeSearcher{}, 0, 0, 0)

	stream, evidence := a.Ask(context.Background(), "proj-1", "anything")
	answer := collect(t, stream)

	assert.Contains(t, answer, "embed service down")
	assert.Empty(t, evidence)
}

func TestAskEvidenceMatchesContext(t *testing.T) {
	ai := &fakeAI{genChunks: []string{"an ", "answer"}}
	idx := &fakeSearcher{
		count: 5,
		results: []domain.QueryResult{
			{FileName: "auth.go", SourceCode: "package auth", Summary: "handles login", Similarity: 0.92},
			{FileName: "db.go", SourceCode: "package db", Summary: "opens the pool", Similarity: 0.81},
		},
	}
	a := NewAnswerer(ai, idx, 0, 0, 0)

	stream, evidence := a.Ask(context.Background(), "proj-1", "how does auth work?")
	answer := collect(t, stream)

	assert.Equal(t, "an answer", answer)
	require.Len(t, evidence, 2)
	assert.Equal(t, "auth.go", evidence[0].FileName)
	assert.Equal(t, "db.go", evidence[1].FileName)

	// Everything in the evidence list made it into the generation context.
	assert.Contains(t, ai.capturedPrompt, "auth.go")
	assert.Contains(t, ai.capturedPrompt, "handles login")
	assert.Contains(t, ai.capturedPrompt, "db.go")
	assert.Contains(t, ai.capturedPrompt, "opens the pool")
	assert.Contains(t, ai.capturedPrompt, "how does auth work?")
}

func TestAskContextBudgetDropsOverflowingResults(t *testing.T) {
	ai := &fakeAI{genChunks: []string{"ok"}}
	idx := &fakeSearcher{
		count: 2,
		results: []domain.QueryResult{
			{FileName: "big.go", SourceCode: strings.Repeat("x", 500), Summary: "big file", Similarity: 0.95},
			{FileName: "small.go", SourceCode: "tiny", Summary: "small file", Similarity: 0.60},
		},
	}
	a := NewAnswerer(ai, idx, 0.3, 15, 100)

	_, evidence := a.Ask(context.Background(), "proj-1", "question")

	// The first result is truncated at the budget; the second never enters the
	// context and therefore is not evidence.
	require.Len(t, evidence, 1)
	assert.Equal(t, "big.go", evidence[0].FileName)
	assert.NotContains(t, ai.capturedPrompt, "small.go")
}

func TestAskPassesPolicyToStore(t *testing.T) {
	ai := &fakeAI{genChunks: []string{"ok"}}
	idx := &fakeSearcher{count: 1}
	a := NewAnswerer(ai, idx, 0.45, 7, 1000)

	a.Ask(context.Background(), "proj-9", "question")

	assert.Equal(t, "proj-9", idx.gotProject)
	assert.Equal(t, "fake-embed", idx.gotModel)
	assert.Equal(t, 0.45, idx.gotThreshold)
	assert.Equal(t, 7, idx.gotLimit)
}

func TestAskDefaultsApplied(t *testing.T) {
	a := NewAnswerer(&fakeAI{}, &fakeSearcher{}, 0, 0, 0)

	assert.Equal(t, DefaultSimilarityThreshold, a.threshold)
	assert.Equal(t, DefaultQueryLimit, a.limit)
	assert.Equal(t, DefaultContextCharBudget, a.budget)
}
