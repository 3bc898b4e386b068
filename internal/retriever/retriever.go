// Package retriever answers queries against one loaded build generation:
// embed the query, search the flat index, and assemble ranked results.
package retriever

import (
	"fmt"
	"strings"

	"ragbot/internal/domain"
	"ragbot/internal/embedding"
	"ragbot/internal/indexer"
	"ragbot/internal/vectorstore"
)

// NoContextFound is the sentinel context text for an empty result set.
const NoContextFound = "No relevant content found."

// Store is one loaded, immutable build generation: the vector index, the
// chunk list it is positionally coupled with, and the build metadata.
// A Store is safe for concurrent readers.
type Store struct {
	index  *vectorstore.Flat
	chunks []domain.Chunk
	meta   indexer.Metadata
}

// OpenStore loads the persisted artifacts from dir and validates them
// against the embedder that will produce query vectors. Mismatches fail
// fast with indexer.ErrStaleIndex rather than producing out-of-range or
// nonsensical search results.
func OpenStore(dir string, emb embedding.Embedder) (*Store, error) {
	index, chunks, meta, err := indexer.LoadArtifacts(dir)
	if err != nil {
		return nil, err
	}
	if emb.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder dimension %d but index dimension %d",
			indexer.ErrStaleIndex, emb.Dimension(), index.Dimension())
	}
	if emb.ModelName() != meta.ModelName {
		return nil, fmt.Errorf("%w: index built with model %q, embedder is %q",
			indexer.ErrStaleIndex, meta.ModelName, emb.ModelName())
	}
	return &Store{index: index, chunks: chunks, meta: *meta}, nil
}

// Metadata returns the build metadata of the loaded generation.
func (s *Store) Metadata() indexer.Metadata { return s.meta }

// Chunk returns the chunk at the given position.
func (s *Store) Chunk(id domain.ChunkID) domain.Chunk { return s.chunks[id] }

// Retriever maps natural-language queries to ranked chunks.
type Retriever struct {
	embedder embedding.Embedder
	store    *Store
	topK     int
}

// New creates a retriever; defaultTopK applies when Retrieve is called with
// a non-positive topK.
func New(emb embedding.Embedder, store *Store, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &Retriever{embedder: emb, store: store, topK: defaultTopK}
}

// Retrieve returns the topK chunks nearest to the query, most similar
// first. Sentinel entries from an underfilled index are skipped, so ranks
// are contiguous from 1.
func (r *Retriever) Retrieve(query string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = r.topK
	}
	queryVector, err := r.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	distances, ids, err := r.store.index.Search(queryVector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, topK)
	for i, id := range ids {
		if id < 0 {
			continue
		}
		chunk := r.store.Chunk(domain.ChunkID(id))
		results = append(results, domain.RetrievalResult{
			Text:     chunk.Text,
			Section:  chunk.Section,
			Source:   chunk.Source,
			Score:    1 / (1 + float64(distances[i])),
			Distance: distances[i],
			Rank:     len(results) + 1,
		})
	}
	return results, nil
}

// FormatContext renders ranked results into a single context blob for the
// LLM and the deduplicated section labels, in first-occurrence order.
func FormatContext(results []domain.RetrievalResult) (string, []string) {
	if len(results) == 0 {
		return NoContextFound, []string{}
	}
	parts := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		if _, ok := seen[res.Section]; !ok {
			seen[res.Section] = struct{}{}
			sources = append(sources, res.Section)
		}
		parts = append(parts, fmt.Sprintf("[Section: %s]\n%s\n", res.Section, res.Text))
	}
	return strings.Join(parts, "\n---\n"), sources
}
