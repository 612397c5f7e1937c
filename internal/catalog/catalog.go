// Package catalog is the multimodal record index: it stores text and image
// records with metadata and answers similarity queries over both modalities.
package catalog

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mosaic/internal/errs"
	"mosaic/internal/vector"
	"mosaic/internal/vector/embed"
	"mosaic/internal/vector/index"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Record kinds stored in the `type` metadata field.
const (
	KindDocument = "document"
	KindImage    = "image"
)

// Metadata keys the catalog itself depends on. Everything else in a record's
// metadata map is caller-supplied and passes through verbatim.
const (
	MetaType        = "type"
	MetaFilename    = "filename"
	MetaPath        = "path"
	MetaDescription = "description"
)

// DefaultListLimit bounds List when the caller passes no limit. Enumeration
// is a best-effort peek, not an exhaustive scan.
const DefaultListLimit = 100

// Match is a search result.
type Match struct {
	ID          string
	Description string
	Metadata    map[string]string
	Distance    float32
}

// Entry is a record summary returned by List.
type Entry struct {
	ID       string
	Filename string
	Path     string
}

// Config holds configuration for the catalog.
type Config struct {
	Root          string              // Storage root; metadata paths are kept relative to it
	Storage       Storage             // Row persistence (nil = in-memory)
	IndexKind     string              // "flat" (default) or "hnsw"
	HNSW          index.HNSWConfig    // HNSW parameters, used when IndexKind is "hnsw"
	TextEmbedder  embed.Embedder      // Optional: defaults to the hashing embedder
	ImageEmbedder embed.ImageEmbedder // Optional: defaults to the histogram embedder
	EmbedDims     int                 // Text embedding dimensions for the default embedder
}

type record struct {
	seq      uint64
	kind     string
	document string
	meta     map[string]string
}

// Catalog indexes records in two embedding spaces: every record's description
// lives in the text space, and image records additionally live in the image
// space. Mutations take the write lock; searches and lookups share the read
// lock (whole-store locking, sized for expected load).
type Catalog struct {
	textIndex  index.Index
	imageIndex index.Index
	newIndex   func() index.Index
	textEmb    embed.Embedder
	imageEmb   embed.ImageEmbedder
	storage    Storage
	root       string

	mu      sync.RWMutex
	records map[string]*record
	order   []string
	nextSeq uint64
}

// New creates a catalog and rebuilds its indexes from persisted rows.
func New(cfg Config) (*Catalog, error) {
	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}
	if cfg.TextEmbedder == nil {
		cfg.TextEmbedder = embed.NewHashing(cfg.EmbedDims)
	}
	if cfg.ImageEmbedder == nil {
		cfg.ImageEmbedder = embed.NewHistogram()
	}

	// Metadata paths resolve against the root, so it must be anchored even
	// when the configured root is relative to the working directory.
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errs.Wrap("catalog.New", fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	newIndex := func() index.Index { return index.New(cfg.IndexKind, cfg.HNSW) }
	c := &Catalog{
		textIndex:  newIndex(),
		imageIndex: newIndex(),
		newIndex:   newIndex,
		textEmb:    cfg.TextEmbedder,
		imageEmb:   cfg.ImageEmbedder,
		storage:    cfg.Storage,
		root:       root,
		records:    make(map[string]*record),
	}

	rows, err := cfg.Storage.LoadRows(context.Background())
	if err != nil {
		return nil, errs.Wrap("catalog.New", fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	_, corpusDependent := c.textEmb.(embed.Trainable)

	for _, row := range rows {
		c.records[row.ID] = &record{
			seq:      row.Seq,
			kind:     row.Kind,
			document: row.Document,
			meta:     row.Meta,
		}
		c.order = append(c.order, row.ID)
		if row.TextVec != nil && !corpusDependent {
			c.textIndex.Add([]vector.Vector{{ID: row.ID, Embedding: row.TextVec, Seq: row.Seq}})
		}
		if row.ImageVec != nil {
			c.imageIndex.Add([]vector.Vector{{ID: row.ID, Embedding: row.ImageVec, Seq: row.Seq}})
		}
		if row.Seq >= c.nextSeq {
			c.nextSeq = row.Seq + 1
		}
	}

	// Corpus-dependent embedders cannot reuse persisted vectors: the
	// vocabulary must be rebuilt from the stored documents so queries
	// embed into the same space as the index.
	if corpusDependent && len(c.order) > 0 {
		if _, err := c.retrainTextLocked(context.Background(), "", 0, ""); err != nil {
			return nil, errs.Wrap("catalog.New", fmt.Errorf("%w: %v", errs.ErrIndex, err))
		}
	}

	return c, nil
}

// AddText indexes a text record with metadata and returns its new ID.
func (c *Catalog) AddText(ctx context.Context, text string, meta map[string]string) (string, error) {
	const op = "catalog.AddText"

	if strings.TrimSpace(text) == "" {
		return "", errs.Wrap(op, fmt.Errorf("%w: text content required", errs.ErrValidation))
	}

	meta = copyMeta(meta)
	if _, ok := meta[MetaDescription]; !ok {
		meta[MetaDescription] = text
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	seq := c.nextSeq

	vec, err := c.insertTextLocked(ctx, id, seq, text)
	if err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	row := Row{ID: id, Seq: seq, Kind: KindDocument, Document: text, TextVec: vec, Meta: meta}
	if err := c.storage.SaveRow(ctx, row); err != nil {
		c.unwindTextLocked(ctx, id)
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	c.nextSeq++
	c.records[id] = &record{seq: seq, kind: KindDocument, document: text, meta: meta}
	c.order = append(c.order, id)
	return id, nil
}

// AddImage indexes the image at path with an optional description. The
// record's description is searchable as text, and the image itself is
// indexed in the image embedding space. The record is either fully indexed
// in both spaces or not indexed at all.
func (c *Catalog) AddImage(ctx context.Context, path, description string, meta map[string]string) (string, error) {
	const op = "catalog.AddImage"

	if _, err := os.Stat(path); err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: image not found: %s", errs.ErrNotFound, path))
	}

	meta = copyMeta(meta)
	if p, ok := meta[MetaPath]; ok {
		rel := p
		if filepath.IsAbs(p) {
			r, err := filepath.Rel(c.root, p)
			if err != nil {
				return "", errs.Wrap(op, fmt.Errorf("%w: path %q outside storage root", errs.ErrValidation, p))
			}
			rel = r
		}
		if !filepath.IsLocal(rel) {
			return "", errs.Wrap(op, fmt.Errorf("%w: path %q outside storage root", errs.ErrValidation, p))
		}
		meta[MetaPath] = rel
	}
	if _, ok := meta[MetaDescription]; !ok {
		if description != "" {
			meta[MetaDescription] = description
		} else {
			meta[MetaDescription] = filepath.Base(path)
		}
	}
	document := meta[MetaDescription]

	img, err := decodeImageFile(path)
	if err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrInvalidContent, err))
	}
	imageVec, err := c.imageEmb.EmbedImage(ctx, img)
	if err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	seq := c.nextSeq

	// Two-step insert: text space first, then the image space. Any later
	// failure unwinds the earlier step so no half-indexed record survives.
	textVec, err := c.insertTextLocked(ctx, id, seq, document)
	if err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}
	if err := c.imageIndex.Add([]vector.Vector{{ID: id, Embedding: imageVec, Seq: seq}}); err != nil {
		c.unwindTextLocked(ctx, id)
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	row := Row{ID: id, Seq: seq, Kind: KindImage, Document: document, TextVec: textVec, ImageVec: imageVec, Meta: meta}
	if err := c.storage.SaveRow(ctx, row); err != nil {
		c.unwindTextLocked(ctx, id)
		c.imageIndex.Remove([]string{id})
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	c.nextSeq++
	c.records[id] = &record{seq: seq, kind: KindImage, document: document, meta: meta}
	c.order = append(c.order, id)
	return id, nil
}

// insertTextLocked places document into the text space for (id, seq) and
// returns the embedding to persist. Caller holds the write lock.
func (c *Catalog) insertTextLocked(ctx context.Context, id string, seq uint64, document string) ([]float32, error) {
	if _, ok := c.textEmb.(embed.Trainable); ok {
		return c.retrainTextLocked(ctx, id, seq, document)
	}

	vecs, err := c.textEmb.Embed(ctx, []string{document})
	if err != nil {
		return nil, err
	}
	if err := c.textIndex.Add([]vector.Vector{{ID: id, Embedding: vecs[0], Seq: seq}}); err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// unwindTextLocked reverses insertTextLocked for a record that never made it
// into the live set. Caller holds the write lock.
func (c *Catalog) unwindTextLocked(ctx context.Context, id string) {
	if _, ok := c.textEmb.(embed.Trainable); ok {
		// The failed record is not in records/order, so a plain rebuild
		// restores the previous space. Best effort.
		c.retrainTextLocked(ctx, "", 0, "")
		return
	}
	c.textIndex.Remove([]string{id})
}

// retrainTextLocked rebuilds the text embedding space from the live
// documents, plus an optional document being inserted. Corpus-dependent
// embedders shift their vector space as the corpus changes, so every text
// vector has to be recomputed together; otherwise records added after the
// vocabulary settled would embed to vectors the index cannot rank. Returns
// the vector for the extra document when one is given. Caller holds the
// write lock.
func (c *Catalog) retrainTextLocked(ctx context.Context, extraID string, extraSeq uint64, extraDoc string) ([]float32, error) {
	tr := c.textEmb.(embed.Trainable)

	ids := make([]string, 0, len(c.order)+1)
	seqs := make([]uint64, 0, len(c.order)+1)
	docs := make([]string, 0, len(c.order)+1)
	for _, id := range c.order {
		rec := c.records[id]
		ids = append(ids, id)
		seqs = append(seqs, rec.seq)
		docs = append(docs, rec.document)
	}
	if extraID != "" {
		ids = append(ids, extraID)
		seqs = append(seqs, extraSeq)
		docs = append(docs, extraDoc)
	}
	if len(docs) == 0 {
		c.textIndex = c.newIndex()
		return nil, nil
	}

	if err := tr.Train(docs); err != nil {
		return nil, err
	}
	vecs, err := c.textEmb.Embed(ctx, docs)
	if err != nil {
		return nil, err
	}

	idx := c.newIndex()
	for i, id := range ids {
		if err := idx.Add([]vector.Vector{{ID: id, Embedding: vecs[i], Seq: seqs[i]}}); err != nil {
			return nil, err
		}
	}
	c.textIndex = idx

	if extraID == "" {
		return nil, nil
	}
	return vecs[len(vecs)-1], nil
}

// SearchByText ranks records by embedding distance to the query text. The
// query is embedded under the read lock so its vector always matches the
// space the index currently holds.
func (c *Catalog) SearchByText(ctx context.Context, query string, limit int) ([]Match, error) {
	const op = "catalog.SearchByText"

	if strings.TrimSpace(query) == "" {
		return nil, errs.Wrap(op, fmt.Errorf("%w: query text required", errs.ErrValidation))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	vecs, err := c.textEmb.Embed(ctx, []string{query})
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	return c.searchLocked(c.textIndex, vecs[0], limit, op)
}

// SearchByImage ranks image records by embedding distance to the image at
// path.
func (c *Catalog) SearchByImage(ctx context.Context, path string, limit int) ([]Match, error) {
	const op = "catalog.SearchByImage"

	if _, err := os.Stat(path); err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: image not found: %s", errs.ErrNotFound, path))
	}
	img, err := decodeImageFile(path)
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrInvalidContent, err))
	}
	vec, err := c.imageEmb.EmbedImage(ctx, img)
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.searchLocked(c.imageIndex, vec, limit, op)
}

// searchLocked runs a nearest-neighbor query. Caller holds at least the
// read lock.
func (c *Catalog) searchLocked(idx index.Index, query []float32, limit int, op string) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	results, err := idx.Search(query, limit)
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrIndex, err))
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		rec, ok := c.records[r.ID]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			ID:          r.ID,
			Description: rec.document,
			Metadata:    copyMeta(rec.meta),
			Distance:    r.Distance,
		})
	}
	return matches, nil
}

// GetMetadata returns a copy of the metadata for id, or nil if the record
// does not exist. Missing records are not an error; callers must check.
func (c *Catalog) GetMetadata(id string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return nil
	}
	return copyMeta(rec.meta)
}

// List enumerates up to limit records in insertion order. It is a bounded
// peek: callers must not assume completeness at high record counts.
func (c *Catalog) List(limit int) []Entry {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, min(limit, len(c.order)))
	for _, id := range c.order {
		rec, ok := c.records[id]
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			ID:       id,
			Filename: rec.meta[MetaFilename],
			Path:     rec.meta[MetaPath],
		})
		if len(entries) >= limit {
			break
		}
	}
	return entries
}

// Delete removes the embeddings and metadata for id. Deleting a record that
// does not exist is a no-op.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	const op = "catalog.Delete"

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return nil
	}

	c.textIndex.Remove([]string{id})
	c.imageIndex.Remove([]string{id})
	if err := c.storage.DeleteRow(ctx, id); err != nil {
		return errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	delete(c.records, id)

	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of live records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Close releases the underlying storage.
func (c *Catalog) Close() error {
	return c.storage.Close()
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func copyMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
