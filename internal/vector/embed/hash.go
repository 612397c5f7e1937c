package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// DefaultHashDims is the default dimensionality for the hashing embedder.
const DefaultHashDims = 512

// Hashing is a feature-hashing text embedder. Each token is mapped to a
// fixed bucket by FNV-1a, so the vector space is stationary: embedding the
// same text always yields the same vector regardless of what else has been
// indexed, and no training pass is required. Identical texts embed at
// distance zero, which also makes search results reproducible.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder with the given dimensionality.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashDims
	}
	return &Hashing{dims: dims}
}

// Embed converts texts to L2-normalized hashed term-frequency vectors.
func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, h.dims)
		for _, word := range tokenize(text) {
			hasher := fnv.New32a()
			hasher.Write([]byte(word))
			sum := hasher.Sum32()
			bucket := sum % uint32(h.dims)
			// Top bit decides the sign so hash collisions tend to
			// cancel instead of stacking.
			if sum&0x80000000 != 0 {
				vec[bucket]--
			} else {
				vec[bucket]++
			}
		}

		var norm float32
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = float32(math.Sqrt(float64(norm)))
			for j := range vec {
				vec[j] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the fixed vector dimensionality.
func (h *Hashing) Dimensions() int {
	return h.dims
}

// Name returns the embedder name.
func (h *Hashing) Name() string {
	return "hash"
}
