package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"sync"

	"mosaic/internal/vector"
	"mosaic/internal/vector/mathutil"
)

// Flat is an exact brute-force index. Every query scans the whole store, so
// ranking is exact and ties resolve deterministically by insertion sequence.
// Suited to the store sizes this system expects; swap in HNSW beyond that.
type Flat struct {
	vectors map[string]vector.Vector
	mu      sync.RWMutex
}

// NewFlat creates an empty flat index.
func NewFlat() *Flat {
	return &Flat{vectors: make(map[string]vector.Vector)}
}

// Add inserts vectors, replacing any existing entry with the same ID.
func (f *Flat) Add(vectors []vector.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range vectors {
		f.vectors[v.ID] = v
	}
	return nil
}

// Search scans all vectors and returns the k nearest.
func (f *Flat) Search(query []float32, k int) ([]SearchResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	results := make([]SearchResult, 0, len(f.vectors))
	for _, v := range f.vectors {
		results = append(results, SearchResult{
			ID:       v.ID,
			Distance: mathutil.CosineDistance(query, v.Embedding),
			Seq:      v.Seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Seq < results[j].Seq
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Remove deletes vectors by ID.
func (f *Flat) Remove(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.vectors, id)
	}
	return nil
}

// Len returns the number of vectors in the index.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Marshal serializes the index.
func (f *Flat) Marshal() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f.vectors); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the index from a snapshot.
func (f *Flat) Unmarshal(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	vectors := make(map[string]vector.Vector)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&vectors); err != nil {
		return err
	}
	f.vectors = vectors
	return nil
}
