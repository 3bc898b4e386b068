// Package hashing implements a local, deterministic feature-hashing text
// embedder. Tokens are hashed into a fixed number of buckets with a signed
// contribution, weighted by term frequency and L2-normalized. Unlike a
// fitted TF-IDF vectorizer it carries no corpus state, so a restored index
// can embed queries without re-reading the corpus.
package hashing

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultDimension matches the embedding dimension of the small sentence
// encoder the index layout was designed around.
const DefaultDimension = 384

// Embedder is a feature-hashing vectorizer with a fixed output dimension.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

// New creates a hashing embedder. Non-positive dimensions fall back to
// DefaultDimension.
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
	}
}

// ModelName identifies this vectorizer and its dimension.
func (e *Embedder) ModelName() string { return fmt.Sprintf("feature-hashing-%d", e.dimension) }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the embedding for the given text. Text with no tokens
// yields the zero vector.
func (e *Embedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	l2normalize(vec)
	return vec, nil
}

// EmbedBatch embeds texts in order. Batching carries no benefit for a local
// vectorizer, so the batch size is ignored.
func (e *Embedder) EmbedBatch(texts []string, batchSize int) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
