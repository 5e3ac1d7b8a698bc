package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
)

// Fallback when default-branch resolution fails or times out.
const defaultBranchFallback = "main"

// Dependency lockfiles are machine-generated noise; summarizing them wastes
// LLM calls and pollutes retrieval.
var ignoredFiles = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"bun.lockb":         {},
	"Cargo.lock":        {},
	"composer.lock":     {},
	"Gemfile.lock":      {},
	"poetry.lock":       {},
	"go.sum":            {},
}

// Conventional build/vendor/cache directories, skipped during any traversal.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"out":          {},
	".next":        {},
	"coverage":     {},
	"__pycache__":  {},
	".idea":        {},
	".vscode":      {},
}

// SourceLoader pulls the full file tree of a remote repository into in-memory
// documents, filtering noise. It performs no writes.
type SourceLoader struct {
	host    port.RepoHost
	timeout time.Duration
	workers int
}

// NewSourceLoader creates a loader with the given wall-clock budget and
// concurrent fetch limit.
func NewSourceLoader(host port.RepoHost, timeout time.Duration, workers int) *SourceLoader {
	if workers <= 0 {
		workers = 4
	}
	return &SourceLoader{host: host, timeout: timeout, workers: workers}
}

// Load fetches every text-like, non-ignored file at the repository's default
// branch, in tree order. It either returns the complete document list or
// fails: exceeding the time budget returns port.ErrLoadTimeout with no partial
// result, and any blob fetch failure fails the whole load.
func (l *SourceLoader) Load(ctx context.Context, owner, repo string) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	branch, err := l.host.DefaultBranch(ctx, owner, repo)
	if err != nil || branch == "" {
		slog.Warn("default branch resolution failed, using fallback",
			"owner", owner, "repo", repo, "fallback", defaultBranchFallback, "error", err)
		branch = defaultBranchFallback
	}

	entries, err := l.host.ListTree(ctx, owner, repo, branch)
	if err != nil {
		return nil, l.timeoutOr(ctx, fmt.Errorf("list tree: %w", err))
	}

	var paths []string
	for _, e := range entries {
		if ignoredPath(e.Path) {
			continue
		}
		paths = append(paths, e.Path)
	}

	docs := make([]domain.Document, len(paths))
	keep := make([]bool, len(paths))
	sem := make(chan struct{}, l.workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetchErr error
	)
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := l.host.FetchBlob(ctx, owner, repo, branch, p)
			if err != nil {
				mu.Lock()
				if fetchErr == nil {
					fetchErr = fmt.Errorf("fetch %s: %w", p, err)
				}
				mu.Unlock()
				return
			}
			if isBinary(content) {
				return
			}
			docs[i] = domain.Document{Path: p, Content: string(content)}
			keep[i] = true
		}(i, p)
	}
	wg.Wait()

	if fetchErr != nil {
		return nil, l.timeoutOr(ctx, fetchErr)
	}

	out := make([]domain.Document, 0, len(docs))
	for i := range docs {
		if keep[i] {
			out = append(out, docs[i])
		}
	}

	slog.Info("repository loaded", "owner", owner, "repo", repo, "branch", branch, "documents", len(out))
	return out, nil
}

// timeoutOr maps a budget expiry onto the loader's sentinel error.
func (l *SourceLoader) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return port.ErrLoadTimeout
	}
	return err
}

// ignoredPath reports whether a repo-relative path is a lockfile or sits
// inside an ignored directory.
func ignoredPath(p string) bool {
	if _, ok := ignoredFiles[path.Base(p)]; ok {
		return true
	}
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if _, ok := ignoredDirs[seg]; ok {
			return true
		}
	}
	return false
}

// isBinary sniffs for a NUL byte, the same heuristic git uses.
func isBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}
