// Package vectorstore provides an exact (flat) nearest-neighbor index over
// fixed-dimension float32 vectors, with binary persistence.
package vectorstore

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

// Flat is a brute-force index storing vectors row-major in a single slice.
// Position in the index is the lookup key shared with the chunk sequence.
// The index is immutable after building or loading, so concurrent searches
// need no locking.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat creates an empty flat index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, errors.New("invalid dimension")
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the vector dimension of the index.
func (f *Flat) Dimension() int { return f.dim }

// Count returns the number of stored vectors.
func (f *Flat) Count() int { return len(f.data) / f.dim }

// Add appends vectors to the index in order.
func (f *Flat) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(v), f.dim)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Vector returns the stored vector at position id. The returned slice
// aliases the index storage and must not be modified.
func (f *Flat) Vector(id int) []float32 {
	return f.data[id*f.dim : (id+1)*f.dim]
}

// Search returns the k nearest stored vectors to query by squared L2
// distance, ascending. When fewer than k vectors exist, the tail of the
// returned slices is padded with id -1 and distance +Inf; callers must skip
// those entries. Relative order among exactly tied distances is
// implementation-defined.
func (f *Flat) Search(query []float32, k int) (distances []float32, ids []int, err error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil, errors.New("k must be positive")
	}

	// Max-heap of the k best candidates: evict the current worst whenever a
	// closer vector shows up.
	h := &candidateHeap{}
	heap.Init(h)
	for i := 0; i < f.Count(); i++ {
		d := l2Squared(query, f.data[i*f.dim:(i+1)*f.dim])
		if h.Len() < k {
			heap.Push(h, candidate{id: i, dist: d})
		} else if d < (*h)[0].dist {
			heap.Pop(h)
			heap.Push(h, candidate{id: i, dist: d})
		}
	}

	found := h.Len()
	distances = make([]float32, k)
	ids = make([]int, k)
	for i := found - 1; i >= 0; i-- {
		c := heap.Pop(h).(candidate)
		distances[i] = c.dist
		ids[i] = c.id
	}
	for i := found; i < k; i++ {
		distances[i] = float32(math.Inf(1))
		ids[i] = -1
	}
	return distances, ids, nil
}

// l2Squared computes the squared Euclidean distance between two vectors of
// equal length.
func l2Squared(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

type candidate struct {
	id   int
	dist float32
}

// candidateHeap is a max-heap over distance, so the root is the worst of
// the current top-k.
type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
