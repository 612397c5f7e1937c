// Package store is the record lifecycle manager. It is the only component
// that touches the storage root, and it keeps the filesystem and the catalog
// in lockstep: a record is never indexed without its backing file, and
// removing a record removes its file.
package store

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"

	"mosaic/internal/catalog"
	"mosaic/internal/errs"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Store coordinates the storage root with the catalog.
type Store struct {
	root    string
	catalog *catalog.Catalog
	log     *log.Logger
}

// New creates a store rooted at root. The directory is created if missing.
func New(root string, cat *catalog.Catalog, logger *log.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap("store.New", fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errs.Wrap("store.New", fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{root: abs, catalog: cat, log: logger}, nil
}

// Root returns the absolute storage root.
func (s *Store) Root() string {
	return s.root
}

// IngestText indexes a text record. No filesystem interaction.
func (s *Store) IngestText(ctx context.Context, text string, meta map[string]string) (string, error) {
	merged := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		merged[k] = v
	}
	// Lifecycle-owned keys overwrite whatever the caller supplied. A text
	// record has no backing file, so it must never carry a path a reader
	// could be pointed at.
	merged[catalog.MetaType] = catalog.KindDocument
	merged[catalog.MetaFilename] = "text_entry"
	delete(merged, catalog.MetaPath)

	return s.catalog.AddText(ctx, text, merged)
}

// IngestImage writes data under a sanitized filename in the storage root,
// verifies it decodes as an image, and indexes it. The write is atomic
// (temp file + rename) and a name collision overwrites the previous file.
func (s *Store) IngestImage(ctx context.Context, data []byte, filename string, meta map[string]string) (string, error) {
	const op = "store.IngestImage"

	name := SanitizeFilename(filename)
	if name == "" {
		return "", errs.Wrap(op, fmt.Errorf("%w: filename required", errs.ErrValidation))
	}

	dest := filepath.Join(s.root, name)
	tmp := dest + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	if err := verifyImage(tmp); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn("could not remove rejected upload", "file", tmp, "err", rmErr)
		}
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrInvalidContent, err))
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	merged := make(map[string]string, len(meta)+4)
	for k, v := range meta {
		merged[k] = v
	}
	// Lifecycle-owned keys overwrite whatever the caller supplied: the
	// record must reference the sanitized file this ingest wrote, not a
	// path of the caller's choosing. Description stays caller-overridable.
	merged[catalog.MetaType] = catalog.KindImage
	merged[catalog.MetaFilename] = name
	merged[catalog.MetaPath] = name
	if _, ok := merged[catalog.MetaDescription]; !ok {
		merged[catalog.MetaDescription] = name
	}

	id, err := s.catalog.AddImage(ctx, dest, name, merged)
	if err != nil {
		// Best-effort compensation: without an index entry the file
		// would be orphaned.
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn("could not remove file after index failure", "file", dest, "err", rmErr)
		}
		return "", err
	}
	return id, nil
}

// ResolveForRead returns the absolute path of the file backing id, for
// streaming back to a caller.
func (s *Store) ResolveForRead(id string) (string, error) {
	const op = "store.ResolveForRead"

	meta := s.catalog.GetMetadata(id)
	if meta == nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: record %s", errs.ErrNotFound, id))
	}
	rel, ok := meta[catalog.MetaPath]
	if !ok || rel == "" {
		return "", errs.Wrap(op, fmt.Errorf("%w: record %s has no file", errs.ErrNotFound, id))
	}
	if !filepath.IsLocal(rel) {
		// A record must never reference anything outside the root,
		// however its metadata came to say otherwise.
		return "", errs.Wrap(op, fmt.Errorf("%w: record %s file is outside the storage root", errs.ErrNotFound, id))
	}

	full := filepath.Join(s.root, rel)
	if _, err := os.Stat(full); err != nil {
		// Index and disk have diverged.
		return "", errs.Wrap(op, fmt.Errorf("%w: file missing on disk: %s", errs.ErrNotFound, rel))
	}
	return full, nil
}

// DeleteRecord removes the record's file (best effort) and its index entry.
// Metadata cleanup takes priority: a failed file removal is logged but does
// not abort the deletion. Repeated calls are no-ops.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	meta := s.catalog.GetMetadata(id)
	if rel, ok := meta[catalog.MetaPath]; ok && rel != "" {
		if !filepath.IsLocal(rel) {
			s.log.Warn("refusing to delete file outside storage root", "id", id, "path", rel)
		} else {
			full := filepath.Join(s.root, rel)
			if _, err := os.Stat(full); err == nil {
				if err := os.Remove(full); err != nil {
					s.log.Warn("could not delete file from disk", "id", id, "file", full, "err", err)
				}
			}
		}
	}
	return s.catalog.Delete(ctx, id)
}

// SearchText ranks records against a text query.
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]catalog.Match, error) {
	return s.catalog.SearchByText(ctx, query, limit)
}

// SearchImage ranks image records against query image bytes. The bytes are
// spooled to a temporary file for the duration of the query.
func (s *Store) SearchImage(ctx context.Context, data []byte, limit int) ([]catalog.Match, error) {
	const op = "store.SearchImage"

	tmp, err := os.CreateTemp(s.root, "query-*.img")
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if err := tmp.Close(); err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	return s.catalog.SearchByImage(ctx, name, limit)
}

// List enumerates up to limit records.
func (s *Store) List(limit int) []catalog.Entry {
	return s.catalog.List(limit)
}

// GetMetadata returns the metadata for id, or nil if the record is unknown.
func (s *Store) GetMetadata(id string) map[string]string {
	return s.catalog.GetMetadata(id)
}

// verifyImage confirms the file decodes as a supported image format.
func verifyImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, _, err := image.Decode(f); err != nil {
		return fmt.Errorf("not a decodable image: %w", err)
	}
	return nil
}

// SanitizeFilename reduces a caller-supplied filename to a safe basename:
// path components are stripped and anything outside letters, digits, dot,
// dash and underscore becomes an underscore. Returns "" when nothing safe
// remains.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)

	var b strings.Builder
	for _, r := range filename {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		default:
			b.WriteByte('_')
		}
	}

	return strings.Trim(b.String(), "._")
}
