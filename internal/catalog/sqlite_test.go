package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorageRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	row := Row{
		ID:       "rec-1",
		Seq:      7,
		Kind:     KindImage,
		Document: "a red square",
		TextVec:  []float32{0.1, 0.2, 0.3},
		ImageVec: []float32{1, 0},
		Meta:     map[string]string{MetaFilename: "red.png", MetaPath: "red.png"},
	}
	require.NoError(t, s.SaveRow(ctx, row))

	rows, err := s.LoadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row, rows[0])
}

func TestSQLiteStorageNilVectorsStayNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SaveRow(ctx, Row{ID: "doc-1", Seq: 0, Kind: KindDocument, Document: "text only", TextVec: []float32{1}}))

	rows, err := s.LoadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ImageVec, "document records carry no image embedding")
}

func TestSQLiteStorageDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SaveRow(ctx, Row{ID: "gone", Seq: 0, Kind: KindDocument, TextVec: []float32{1}}))
	require.NoError(t, s.DeleteRow(ctx, "gone"))

	rows, err := s.LoadRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Deleting an absent row is not an error.
	assert.NoError(t, s.DeleteRow(ctx, "gone"))
}

func TestCatalogReopensFromSQLite(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "catalog.db")
	ctx := context.Background()

	s1, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	c1, err := New(Config{Root: root, Storage: s1})
	require.NoError(t, err)

	id, err := c1.AddText(ctx, "persisted across restarts", nil)
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	s2, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	c2, err := New(Config{Root: root, Storage: s2})
	require.NoError(t, err)
	defer c2.Close()

	meta := c2.GetMetadata(id)
	require.NotNil(t, meta)
	assert.Equal(t, "persisted across restarts", meta[MetaDescription])

	matches, err := c2.SearchByText(ctx, "persisted across restarts", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, id, matches[0].ID)
}
