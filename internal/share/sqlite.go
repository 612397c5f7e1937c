package share

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a persistent TokenStore. Share links issued through it
// survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed token store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
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
		CREATE TABLE IF NOT EXISTS share_tokens (
			value TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Put stores a token.
func (s *SQLiteStore) Put(ctx context.Context, t Token) error {
	var expiresAt *time.Time
	if !t.ExpiresAt.IsZero() {
		expiresAt = &t.ExpiresAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO share_tokens (value, record_id, issued_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		t.Value, t.RecordID, t.IssuedAt, expiresAt,
	)
	return err
}

// Get returns the token for value, if present.
func (s *SQLiteStore) Get(ctx context.Context, value string) (Token, bool, error) {
	var t Token
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT value, record_id, issued_at, expires_at
		FROM share_tokens WHERE value = ?`, value,
	).Scan(&t.Value, &t.RecordID, &t.IssuedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	if expiresAt.Valid {
		t.ExpiresAt = expiresAt.Time
	}
	return t, true, nil
}

// Delete removes a token. Deleting an unknown value is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM share_tokens WHERE value = ?", value)
	return err
}

// PruneExpired removes every expired token and returns how many were
// removed.
func (s *SQLiteStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM share_tokens WHERE expires_at IS NOT NULL AND expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
