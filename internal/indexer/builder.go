// Package indexer runs the build pipeline: load content, chunk, embed,
// construct the flat index, and persist one build generation.
package indexer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"ragbot/internal/chunker"
	"ragbot/internal/domain"
	"ragbot/internal/embedding"
	"ragbot/internal/loader"
	"ragbot/internal/vectorstore"
)

// ErrNoChunks is returned when the content yields no chunks; an empty index
// is never written.
var ErrNoChunks = errors.New("no chunks produced from content")

// Stats reports the outcome of one build.
type Stats struct {
	TotalChunks        int `json:"total_chunks"`
	EmbeddingDimension int `json:"embedding_dimension"`
	IndexSize          int `json:"index_size"`
}

// Builder orchestrates the indexing pipeline. The pipeline is strictly
// sequential; any failing step aborts the build and no artifact is
// replaced.
type Builder struct {
	chunker     *chunker.SectionChunker
	embedder    embedding.Embedder
	indexDir    string
	contentPath string
	batchSize   int
}

// NewBuilder creates a builder writing artifacts to indexDir. contentPath
// is the default content location used when Build is called with an empty
// path.
func NewBuilder(ch *chunker.SectionChunker, emb embedding.Embedder, indexDir, contentPath string, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Builder{
		chunker:     ch,
		embedder:    emb,
		indexDir:    indexDir,
		contentPath: contentPath,
		batchSize:   batchSize,
	}
}

// Build runs the full pipeline and returns build statistics.
func (b *Builder) Build(contentPath string) (*Stats, error) {
	if contentPath == "" {
		contentPath = b.contentPath
	}

	content, err := loader.LoadContent(contentPath)
	if err != nil {
		return nil, err
	}

	sections := loader.ParseSections(content)
	chunks := b.chunker.ChunkSections(sections, filepath.Base(contentPath))
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoChunks, contentPath)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := b.embedder.EmbedBatch(texts, b.batchSize)
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}

	index, err := vectorstore.NewFlat(b.embedder.Dimension())
	if err != nil {
		return nil, err
	}
	if err := index.Add(vectors); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	buildID, err := newBuildID()
	if err != nil {
		return nil, err
	}
	meta := Metadata{
		BuildID:            buildID,
		TotalChunks:        len(chunks),
		EmbeddingDimension: b.embedder.Dimension(),
		ModelName:          b.embedder.ModelName(),
		ChunkSize:          b.chunker.ChunkSize(),
		ChunkOverlap:       b.chunker.ChunkOverlap(),
		Sections:           sectionLabels(chunks),
		BuildTimestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeArtifacts(b.indexDir, buildID, index, chunks, meta); err != nil {
		return nil, err
	}

	return &Stats{
		TotalChunks:        len(chunks),
		EmbeddingDimension: b.embedder.Dimension(),
		IndexSize:          index.Count(),
	}, nil
}

// IndexDir returns the directory the builder persists artifacts to.
func (b *Builder) IndexDir() string { return b.indexDir }

func newBuildID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating build id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// sectionLabels returns the sorted set of distinct section labels.
func sectionLabels(chunks []domain.Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var labels []string
	for _, c := range chunks {
		if _, ok := seen[c.Section]; ok {
			continue
		}
		seen[c.Section] = struct{}{}
		labels = append(labels, c.Section)
	}
	sort.Strings(labels)
	return labels
}
