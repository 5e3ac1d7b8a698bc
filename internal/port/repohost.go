package port

import "context"

// TreeEntry is one file listed in a repository tree.
type TreeEntry struct {
	Path string
	Size int
}

// RepoHost abstracts the repository hosting provider API.
// Implementations handle branch resolution, tree listing, and content fetches.
type RepoHost interface {
	// DefaultBranch resolves the repository's default branch name.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// ListTree returns all blob entries at the given ref, recursively.
	ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error)

	// FetchBlob returns the raw content of a single file at the given ref.
	FetchBlob(ctx context.Context, owner, repo, ref, path string) ([]byte, error)
}
