// Package embed provides the embedding functions that map raw content to
// fixed-length vectors for similarity ranking.
package embed

import (
	"context"
	"image"
	"strings"
	"unicode"
)

// Embedder converts text to vectors.
type Embedder interface {
	// Embed converts texts to vectors (batched for efficiency).
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Name identifies the embedder.
	Name() string
}

// Trainable is implemented by embedders whose vector space depends on the
// indexed corpus. Hosts must call Train again whenever the corpus changes
// and re-embed every document afterwards; vectors from an earlier training
// pass are not comparable to later ones.
type Trainable interface {
	Train(documents []string) error
}

// ImageEmbedder converts decoded images to vectors.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, img image.Image) ([]float32, error)
	Dimensions() int
	Name() string
}

// tokenize splits text into lowercase words.
func tokenize(text string) []string {
	var words []string
	var word strings.Builder

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
		} else if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		words = append(words, word.String())
	}

	return words
}
