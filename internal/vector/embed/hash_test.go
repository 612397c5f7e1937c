package embed

import (
	"context"
	"testing"

	"mosaic/internal/vector/mathutil"
)

func TestHashingDeterministic(t *testing.T) {
	e := NewHashing(0)
	ctx := context.Background()

	v1, err := e.Embed(ctx, []string{"hello world"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	v2, _ := e.Embed(ctx, []string{"hello world"})

	if d := mathutil.CosineDistance(v1[0], v2[0]); d > 1e-6 {
		t.Errorf("identical texts should embed at distance 0, got %v", d)
	}
}

func TestHashingStationary(t *testing.T) {
	// The vector for a text must not depend on what else was embedded.
	e1 := NewHashing(128)
	e2 := NewHashing(128)
	ctx := context.Background()

	e2.Embed(ctx, []string{"completely unrelated corpus text"})

	v1, _ := e1.Embed(ctx, []string{"stable query"})
	v2, _ := e2.Embed(ctx, []string{"stable query"})

	for i := range v1[0] {
		if v1[0][i] != v2[0][i] {
			t.Fatalf("vectors diverge at dim %d", i)
		}
	}
}

func TestHashingSharedTokens(t *testing.T) {
	e := NewHashing(0)
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{
		"the quick brown fox",
		"a quick brown dog",
		"stock market report",
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	near := mathutil.CosineDistance(vecs[0], vecs[1])
	far := mathutil.CosineDistance(vecs[0], vecs[2])
	if near >= far {
		t.Errorf("overlapping texts should be closer: near=%v far=%v", near, far)
	}
}

func TestHashingDimensions(t *testing.T) {
	if d := NewHashing(0).Dimensions(); d != DefaultHashDims {
		t.Errorf("default dims = %d, want %d", d, DefaultHashDims)
	}
	if d := NewHashing(64).Dimensions(); d != 64 {
		t.Errorf("dims = %d, want 64", d)
	}
}
