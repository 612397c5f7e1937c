package catalog

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// SQLiteStorage persists catalog rows in a SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) a SQLite-backed storage at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			document TEXT,
			text_embedding BLOB,
			image_embedding BLOB,
			metadata TEXT
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// SaveRow stores a row, replacing any existing row with the same ID.
func (s *SQLiteStorage) SaveRow(ctx context.Context, row Row) error {
	var metaJSON []byte
	if row.Meta != nil {
		metaJSON, _ = json.Marshal(row.Meta)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO records
		(id, seq, kind, document, text_embedding, image_embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.Seq,
		row.Kind,
		row.Document,
		encodeFloat32Slice(row.TextVec),
		encodeFloat32Slice(row.ImageVec),
		metaJSON,
	)
	return err
}

// DeleteRow removes a row by ID.
func (s *SQLiteStorage) DeleteRow(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	return err
}

// LoadRows returns all stored rows ordered by insertion sequence.
func (s *SQLiteStorage) LoadRows(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, kind, document, text_embedding, image_embedding, metadata
		FROM records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var document sql.NullString
		var textVec, imageVec []byte
		var metaJSON sql.NullString

		if err := rows.Scan(&r.ID, &r.Seq, &r.Kind, &document, &textVec, &imageVec, &metaJSON); err != nil {
			return nil, err
		}
		r.Document = document.String
		r.TextVec = decodeFloat32Slice(textVec)
		r.ImageVec = decodeFloat32Slice(imageVec)
		if metaJSON.Valid && metaJSON.String != "" {
			json.Unmarshal([]byte(metaJSON.String), &r.Meta)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// encodeFloat32Slice converts []float32 to []byte. Nil slices encode as nil.
func encodeFloat32Slice(f []float32) []byte {
	if f == nil {
		return nil
	}
	buf := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeFloat32Slice converts []byte to []float32. Empty input decodes as nil.
func decodeFloat32Slice(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}
