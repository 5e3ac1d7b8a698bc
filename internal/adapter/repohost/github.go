package repohost

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
)

// GitHubHost implements port.RepoHost using the GitHub REST API.
type GitHubHost struct {
	client *github.Client
}

// NewGitHubHost creates a GitHub-backed repo host. An empty token falls back to
// unauthenticated access, which is heavily rate-limited.
func NewGitHubHost(token string) *GitHubHost {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &GitHubHost{client: github.NewClient(httpClient)}
}

// DefaultBranch resolves the repository's default branch name.
func (g *GitHubHost) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}
	return r.GetDefaultBranch(), nil
}

// ListTree returns all blob entries at the given ref, recursively.
func (g *GitHubHost) ListTree(ctx context.Context, owner, repo, ref string) ([]port.TreeEntry, error) {
	tree, _, err := g.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, repo, ref, err)
	}

	var entries []port.TreeEntry
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, port.TreeEntry{Path: e.GetPath(), Size: e.GetSize()})
	}
	return entries, nil
}

// FetchBlob returns the decoded content of a single file at the given ref.
func (g *GitHubHost) FetchBlob(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	content, _, _, err := g.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("get contents %s: %w", path, err)
	}
	if content == nil {
		return nil, fmt.Errorf("get contents %s: not a file", path)
	}

	text, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode contents %s: %w", path, err)
	}
	return []byte(text), nil
}
