package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/errs"
	"mosaic/internal/vector/embed"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(Config{Root: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func writePNG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestAddTextEmptyFails(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.AddText(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAddTextDefaultsDescription(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "hello world", map[string]string{"type": KindDocument})
	require.NoError(t, err)

	meta := c.GetMetadata(id)
	require.NotNil(t, meta)
	assert.Equal(t, "hello world", meta[MetaDescription])
	assert.Equal(t, KindDocument, meta[MetaType])
}

func TestAddTextKeepsExplicitDescription(t *testing.T) {
	c := newTestCatalog(t)

	id, err := c.AddText(context.Background(), "raw content", map[string]string{MetaDescription: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", c.GetMetadata(id)[MetaDescription])
}

func TestSearchByTextRanksExactMatchFirst(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "hello world", nil)
	require.NoError(t, err)
	_, err = c.AddText(ctx, "stock market report", nil)
	require.NoError(t, err)

	matches, err := c.SearchByText(ctx, "hello", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, id, matches[0].ID)
	assert.Equal(t, "hello world", matches[0].Description)
}

func TestSearchByTextEmptyQueryFails(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.SearchByText(context.Background(), "", 5)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSearchByTextLimit(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for _, text := range []string{"alpha one", "alpha two", "alpha three"} {
		_, err := c.AddText(ctx, text, nil)
		require.NoError(t, err)
	}

	matches, err := c.SearchByText(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestAddImageMissingPathFails(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.AddImage(context.Background(), "/nonexistent/file.png", "", nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAddImageDefaultsDescriptionToBasename(t *testing.T) {
	root := t.TempDir()
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()

	path := writePNG(t, root, "sunset.png", color.RGBA{255, 0, 0, 255})

	id, err := c.AddImage(context.Background(), path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "sunset.png", c.GetMetadata(id)[MetaDescription])
}

func TestAddImageNormalizesAbsolutePath(t *testing.T) {
	root := t.TempDir()
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()

	path := writePNG(t, root, "pic.png", color.RGBA{0, 255, 0, 255})

	id, err := c.AddImage(context.Background(), path, "a picture", map[string]string{MetaPath: path})
	require.NoError(t, err)

	meta := c.GetMetadata(id)
	assert.Equal(t, "pic.png", meta[MetaPath], "path must be stored relative to the storage root")
	assert.False(t, filepath.IsAbs(meta[MetaPath]))
}

func TestAddImageRejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()

	outside := writePNG(t, t.TempDir(), "outside.png", color.RGBA{9, 9, 9, 255})
	inRoot := writePNG(t, root, "in.png", color.RGBA{9, 9, 9, 255})

	// Absolute path metadata pointing outside the root.
	_, err = c.AddImage(context.Background(), inRoot, "", map[string]string{MetaPath: outside})
	assert.ErrorIs(t, err, errs.ErrValidation)

	// Relative path metadata climbing out of the root.
	_, err = c.AddImage(context.Background(), inRoot, "", map[string]string{MetaPath: "../escape.png"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAddImageRelativeRootNormalizesAbsolutePath(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	root := filepath.Join("data", "uploads")
	require.NoError(t, os.MkdirAll(root, 0o755))
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()

	path := writePNG(t, root, "pic.png", color.RGBA{0, 255, 0, 255})
	abs, err := filepath.Abs(path)
	require.NoError(t, err)

	id, err := c.AddImage(context.Background(), abs, "", map[string]string{MetaPath: abs})
	require.NoError(t, err)
	assert.Equal(t, "pic.png", c.GetMetadata(id)[MetaPath])
}

func TestSearchByImageFindsSimilarColor(t *testing.T) {
	root := t.TempDir()
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	redPath := writePNG(t, root, "red.png", color.RGBA{255, 0, 0, 255})
	bluePath := writePNG(t, root, "blue.png", color.RGBA{0, 0, 255, 255})

	redID, err := c.AddImage(ctx, redPath, "", nil)
	require.NoError(t, err)
	_, err = c.AddImage(ctx, bluePath, "", nil)
	require.NoError(t, err)

	queryPath := writePNG(t, t.TempDir(), "query.png", color.RGBA{250, 5, 5, 255})
	matches, err := c.SearchByImage(ctx, queryPath, 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, redID, matches[0].ID)
}

func TestSearchByImageMissingPathFails(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.SearchByImage(context.Background(), "/nonexistent.png", 5)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSearchByImageIgnoresTextRecords(t *testing.T) {
	root := t.TempDir()
	c, err := New(Config{Root: root})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, err = c.AddText(ctx, "not an image", nil)
	require.NoError(t, err)
	imgPath := writePNG(t, root, "only.png", color.RGBA{1, 2, 3, 255})
	imgID, err := c.AddImage(ctx, imgPath, "", nil)
	require.NoError(t, err)

	matches, err := c.SearchByImage(ctx, imgPath, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, imgID, matches[0].ID)
}

func TestGetMetadataMissingReturnsNil(t *testing.T) {
	c := newTestCatalog(t)
	assert.Nil(t, c.GetMetadata("no-such-id"))
}

func TestListInsertionOrder(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		id, err := c.AddText(ctx, text, map[string]string{MetaFilename: text})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	entries := c.List(0)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
	}
}

func TestListBounded(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.AddText(ctx, "entry", nil)
		require.NoError(t, err)
	}

	assert.Len(t, c.List(3), 3)
}

func TestDeleteIdempotent(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "short lived", nil)
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, id))
	assert.Nil(t, c.GetMetadata(id))

	// Second delete is a no-op, not an error.
	assert.NoError(t, c.Delete(ctx, id))
	assert.NoError(t, c.Delete(ctx, "never-existed"))
}

func TestSearchByTextTFIDFGrowingCorpus(t *testing.T) {
	c, err := New(Config{Root: t.TempDir(), TextEmbedder: embed.NewTFIDF(0)})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	first, err := c.AddText(ctx, "hello world", nil)
	require.NoError(t, err)

	// This record's words were not in the vocabulary when the first record
	// was embedded; the text space must grow to rank it.
	second, err := c.AddText(ctx, "goodbye moon", nil)
	require.NoError(t, err)

	matches, err := c.SearchByText(ctx, "goodbye moon", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, second, matches[0].ID)

	matches, err = c.SearchByText(ctx, "hello world", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, first, matches[0].ID)
}

func TestTFIDFReopensFromSQLite(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "catalog.db")
	ctx := context.Background()

	s1, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	c1, err := New(Config{Root: root, Storage: s1, TextEmbedder: embed.NewTFIDF(0)})
	require.NoError(t, err)

	_, err = c1.AddText(ctx, "alpha beta gamma", nil)
	require.NoError(t, err)
	wanted, err := c1.AddText(ctx, "delta epsilon zeta", nil)
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	// A fresh embedder retrains from the persisted documents, so queries
	// land in the same space as the rebuilt index.
	s2, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	c2, err := New(Config{Root: root, Storage: s2, TextEmbedder: embed.NewTFIDF(0)})
	require.NoError(t, err)
	defer c2.Close()

	matches, err := c2.SearchByText(ctx, "delta epsilon zeta", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, wanted, matches[0].ID)
}

func TestDeleteRemovesFromSearch(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, err := c.AddText(ctx, "findable text", nil)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, id))

	matches, err := c.SearchByText(ctx, "findable text", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
