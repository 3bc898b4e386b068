package chunker

import (
	"errors"
	"fmt"

	"ragbot/internal/domain"
	"ragbot/internal/loader"
)

// SectionChunker splits labelled sections into bounded-size chunks with
// overlap. Window sizes are measured in characters (runes), not bytes.
type SectionChunker struct {
	chunkSize    int
	chunkOverlap int
}

// New validates the chunking parameters. The overlap must be strictly
// smaller than the chunk size or the sliding window would never advance.
func New(chunkSize, chunkOverlap int) (*SectionChunker, error) {
	if chunkSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &SectionChunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// ChunkSize returns the configured maximum chunk length in characters.
func (c *SectionChunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the configured overlap between consecutive chunks.
func (c *SectionChunker) ChunkOverlap() int { return c.chunkOverlap }

// ChunkSections emits chunks for each section in order. A section body that
// fits within the chunk size becomes a single chunk with the label
// unmodified; longer bodies are split into overlapping windows labelled
// "<label> (part n)", n counting from 1 per section.
func (c *SectionChunker) ChunkSections(sections []domain.Section, source string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, sec := range sections {
		body := []rune(sec.Body)
		if len(body) <= c.chunkSize {
			chunks = append(chunks, domain.Chunk{Text: sec.Body, Source: source, Section: sec.Label})
			continue
		}
		step := c.chunkSize - c.chunkOverlap
		part := 1
		for start := 0; start < len(body); start += step {
			end := start + c.chunkSize
			if end > len(body) {
				end = len(body)
			}
			chunks = append(chunks, domain.Chunk{
				Text:    string(body[start:end]),
				Source:  source,
				Section: fmt.Sprintf("%s (part %d)", sec.Label, part),
			})
			part++
		}
	}
	return chunks
}

// ChunkContent parses raw aggregated content into sections and chunks them.
func (c *SectionChunker) ChunkContent(content, source string) []domain.Chunk {
	return c.ChunkSections(loader.ParseSections(content), source)
}
