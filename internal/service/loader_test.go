package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
)

// fakeHost is an in-memory port.RepoHost for loader and indexer tests.
type fakeHost struct {
	mu           sync.Mutex
	branch       string
	branchErr    error
	tree         []port.TreeEntry
	blobs        map[string][]byte
	listDelay    time.Duration
	requestedRef string
}

func (f *fakeHost) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	return f.branch, f.branchErr
}

func (f *fakeHost) ListTree(ctx context.Context, owner, repo, ref string) ([]port.TreeEntry, error) {
	f.mu.Lock()
	f.requestedRef = ref
	f.mu.Unlock()

	if f.listDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.listDelay):
		}
	}
	return f.tree, nil
}

func (f *fakeHost) FetchBlob(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := f.blobs[path]
	if !ok {
		return nil, fmt.Errorf("no blob for %s", path)
	}
	return b, nil
}

func TestLoadFiltersNoiseAndPreservesOrder(t *testing.T) {
	host := &fakeHost{
		branch: "main",
		tree: []port.TreeEntry{
			{Path: "README.md"},
			{Path: "package-lock.json"},
			{Path: "node_modules/left-pad/index.js"},
			{Path: "src/main.go"},
			{Path: "assets/logo.png"},
			{Path: "vendor/lib/dep.go"},
		},
		blobs: map[string][]byte{
			"README.md":       []byte("# hello"),
			"src/main.go":     []byte("package main"),
			"assets/logo.png": {0x89, 0x50, 0x4E, 0x47, 0x00, 0x01},
		},
	}
	loader := NewSourceLoader(host, time.Minute, 2)

	docs, err := loader.Load(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "README.md", docs[0].Path)
	assert.Equal(t, "# hello", docs[0].Content)
	assert.Equal(t, "src/main.go", docs[1].Path)
}

func TestLoadFallsBackToDefaultBranch(t *testing.T) {
	host := &fakeHost{
		branchErr: errors.New("api unavailable"),
		tree:      []port.TreeEntry{{Path: "main.go"}},
		blobs:     map[string][]byte{"main.go": []byte("package main")},
	}
	loader := NewSourceLoader(host, time.Minute, 2)

	docs, err := loader.Load(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	assert.Equal(t, "main", host.requestedRef)
	assert.Len(t, docs, 1)
}

func TestLoadTimeoutReturnsNoPartialResult(t *testing.T) {
	host := &fakeHost{
		branch:    "main",
		tree:      []port.TreeEntry{{Path: "main.go"}},
		blobs:     map[string][]byte{"main.go": []byte("package main")},
		listDelay: 500 * time.Millisecond,
	}
	loader := NewSourceLoader(host, 20*time.Millisecond, 2)

	docs, err := loader.Load(context.Background(), "acme", "widgets")
	require.ErrorIs(t, err, port.ErrLoadTimeout)
	assert.Nil(t, docs)
}

func TestLoadBlobFetchFailureFailsWholeLoad(t *testing.T) {
	host := &fakeHost{
		branch: "main",
		tree: []port.TreeEntry{
			{Path: "ok.go"},
			{Path: "missing.go"},
		},
		blobs: map[string][]byte{"ok.go": []byte("package ok")},
	}
	loader := NewSourceLoader(host, time.Minute, 2)

	docs, err := loader.Load(context.Background(), "acme", "widgets")
	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrLoadTimeout)
	assert.Nil(t, docs)
}

func TestIgnoredPath(t *testing.T) {
	assert.True(t, ignoredPath("yarn.lock"))
	assert.True(t, ignoredPath("api/go.sum"))
	assert.True(t, ignoredPath("web/node_modules/react/index.js"))
	assert.True(t, ignoredPath(".git/config"))
	assert.False(t, ignoredPath("src/node_modules.go"))
	assert.False(t, ignoredPath("internal/service/loader.go"))
}
