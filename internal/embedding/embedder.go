package embedding

// Embedder converts text into fixed-dimension dense vectors. For a given
// model the mapping is deterministic: the same text always yields the same
// vector.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(text string) ([]float32, error)

	// EmbedBatch embeds texts in order. The batch size is a throughput
	// knob only and must not change the produced values.
	EmbedBatch(texts []string, batchSize int) ([][]float32, error)

	// Dimension returns the model's native embedding dimension.
	Dimension() int

	// ModelName identifies the model; persisted with the index so a
	// mismatched embedder can be rejected at load time.
	ModelName() string
}
