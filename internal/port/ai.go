package port

import "context"

// AIProvider abstracts the AI/LLM backend for summaries, embeddings, and answer
// generation. Implementations can target Ollama, OpenAI, or any compatible API.
type AIProvider interface {
	// EmbedModel returns the identifier of the embedding model in use.
	// Vectors produced by different models are not comparable.
	EmbedModel() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Summarize produces a natural-language summary of a source file.
	// An empty result means the file carries nothing worth indexing.
	Summarize(ctx context.Context, path, content string) (string, error)

	// GenerateStream sends a prompt and streams the response token-by-token via
	// channel. The channel closes when generation completes or ctx is cancelled.
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, error)
}
