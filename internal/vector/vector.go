// Package vector holds the value types shared by the embedding engine.
package vector

// Vector is a single indexed item.
type Vector struct {
	ID        string
	Embedding []float32
	// Seq is the insertion sequence number. Search ties are broken by
	// ascending Seq so result order stays stable across runs.
	Seq uint64
}
