// Package index provides nearest-neighbor search over embedding vectors.
package index

import "mosaic/internal/vector"

// SearchResult is a nearest neighbor match.
type SearchResult struct {
	ID       string
	Distance float32
	Seq      uint64
}

// Index provides nearest neighbor search.
type Index interface {
	// Add inserts vectors into the index.
	Add(vectors []vector.Vector) error

	// Search returns up to k nearest neighbors ordered by ascending
	// distance, ties broken by insertion sequence.
	Search(query []float32, k int) ([]SearchResult, error)

	// Remove removes vectors by ID. Unknown IDs are ignored.
	Remove(ids []string) error

	// Marshal and Unmarshal snapshot the index state.
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error

	// Len returns the number of live vectors.
	Len() int
}

// Kinds of index implementations.
const (
	KindFlat = "flat"
	KindHNSW = "hnsw"
)

// New creates an index of the given kind. Unknown kinds fall back to the
// exact flat index.
func New(kind string, cfg HNSWConfig) Index {
	if kind == KindHNSW {
		return NewHNSW(cfg)
	}
	return NewFlat()
}
