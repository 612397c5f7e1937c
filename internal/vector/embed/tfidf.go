package embed

import (
	"context"
	"math"
	"sort"
	"sync"
)

// TFIDF is a TF-IDF based text embedder. Each Train call rebuilds the
// vocabulary from scratch, and vectors embedded before and after a retrain
// live in different spaces: hosts with a growing corpus must retrain and
// re-embed on every change (the catalog does). The hashing embedder avoids
// that cost when ranking quality allows.
type TFIDF struct {
	vocabulary map[string]int
	idf        []float32
	maxDims    int
	trained    bool
	mu         sync.RWMutex
}

// NewTFIDF creates a TF-IDF embedder with a maximum vocabulary size.
func NewTFIDF(maxDims int) *TFIDF {
	if maxDims <= 0 {
		maxDims = 4096
	}
	return &TFIDF{
		vocabulary: make(map[string]int),
		maxDims:    maxDims,
	}
}

// Train builds the vocabulary from a corpus.
func (t *TFIDF) Train(documents []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	docFreq := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, word := range tokenize(doc) {
			if !seen[word] {
				docFreq[word]++
				seen[word] = true
			}
		}
	}

	type wordFreq struct {
		word string
		freq int
	}
	wf := make([]wordFreq, 0, len(docFreq))
	for w, f := range docFreq {
		wf = append(wf, wordFreq{w, f})
	}
	sort.Slice(wf, func(i, j int) bool {
		if wf[i].freq != wf[j].freq {
			return wf[i].freq > wf[j].freq
		}
		return wf[i].word < wf[j].word
	})
	if len(wf) > t.maxDims {
		wf = wf[:t.maxDims]
	}

	t.vocabulary = make(map[string]int, len(wf))
	t.idf = make([]float32, len(wf))
	n := float64(len(documents))

	for i, w := range wf {
		t.vocabulary[w.word] = i
		// Smoothed IDF: 1 + log(N/df) keeps single-document corpora
		// from collapsing to the zero vector.
		t.idf[i] = float32(1 + math.Log(n/float64(w.freq)))
	}

	t.trained = true
	return nil
}

// Embed converts texts to TF-IDF vectors, auto-training on first use.
func (t *TFIDF) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	t.mu.RLock()
	trained := t.trained
	t.mu.RUnlock()

	if !trained {
		if err := t.Train(texts); err != nil {
			return nil, err
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	dims := len(t.vocabulary)
	vectors := make([][]float32, len(texts))

	for i, text := range texts {
		vec := make([]float32, dims)
		words := tokenize(text)

		tf := make(map[string]int)
		for _, w := range words {
			tf[w]++
		}

		for word, count := range tf {
			if idx, ok := t.vocabulary[word]; ok {
				vec[idx] = float32(count) / float32(len(words)) * t.idf[idx]
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

// Dimensions returns the vocabulary size.
func (t *TFIDF) Dimensions() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vocabulary)
}

// Name returns the embedder name.
func (t *TFIDF) Name() string {
	return "tfidf"
}
