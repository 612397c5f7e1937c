package share

import (
	"context"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"mosaic/internal/errs"
	"mosaic/pkg/tokens"
)

// RecordLookup is the slice of the catalog the token service needs: enough
// to confirm a record exists before minting a capability for it.
type RecordLookup interface {
	GetMetadata(id string) map[string]string
}

// Config holds configuration for the token service.
type Config struct {
	Store   TokenStore    // nil = in-memory
	Records RecordLookup  // required
	BaseURL string        // prefix for share URLs, e.g. "https://host"
	TTL     time.Duration // 0 = tokens never expire
	Now     func() time.Time
}

// Service issues, resolves and revokes capability tokens. Resolution never
// checks record liveness: a token issued before a record's deletion still
// resolves, and the dangling reference only surfaces when the holder tries
// to read the file. That keeps unknown-token and deleted-record failures
// identical in shape at this boundary.
type Service struct {
	store   TokenStore
	records RecordLookup
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a token service.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:   cfg.Store,
		records: cfg.Records,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ttl:     cfg.TTL,
		now:     cfg.Now,
	}
}

// Issue mints a token granting bearer access to recordID. The record must
// exist at issuance time.
func (s *Service) Issue(ctx context.Context, recordID string) (Token, error) {
	const op = "share.Issue"

	if s.records.GetMetadata(recordID) == nil {
		return Token{}, errs.Wrap(op, fmt.Errorf("%w: record %s", errs.ErrNotFound, recordID))
	}

	value, err := tokens.Generate()
	if err != nil {
		return Token{}, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}

	t := Token{
		Value:    value,
		RecordID: recordID,
		IssuedAt: s.now(),
	}
	if s.ttl > 0 {
		t.ExpiresAt = t.IssuedAt.Add(s.ttl)
	}

	if err := s.store.Put(ctx, t); err != nil {
		return Token{}, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	return t, nil
}

// Resolve maps a token back to its record ID. The token is not consumed;
// bearer capabilities may be resolved any number of times. Unknown and
// expired tokens fail identically.
func (s *Service) Resolve(ctx context.Context, value string) (string, error) {
	const op = "share.Resolve"

	t, ok, err := s.store.Get(ctx, value)
	if err != nil {
		return "", errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if !ok || t.Expired(s.now()) {
		return "", errs.Wrap(op, fmt.Errorf("%w: invalid or expired token", errs.ErrNotFound))
	}
	return t.RecordID, nil
}

// Revoke removes a token. Resolving it afterwards fails. Revoking an
// unknown token is a no-op.
func (s *Service) Revoke(ctx context.Context, value string) error {
	const op = "share.Revoke"

	if err := s.store.Delete(ctx, value); err != nil {
		return errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	return nil
}

// PruneExpired removes expired tokens from the store. Host applications
// that run resident can call this periodically; everyone else gets lazy
// expiry at Resolve.
func (s *Service) PruneExpired(ctx context.Context) (int, error) {
	const op = "share.PruneExpired"

	n, err := s.store.PruneExpired(ctx, s.now())
	if err != nil {
		return 0, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	return n, nil
}

// ShareURL returns the URL a token holder follows to access the record.
func (s *Service) ShareURL(value string) string {
	return s.baseURL + "/access/" + value
}

// QRCode renders the share URL for a token as a PNG image.
func (s *Service) QRCode(value string) ([]byte, error) {
	const op = "share.QRCode"

	png, err := qrcode.Encode(s.ShareURL(value), qrcode.Medium, 256)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	return png, nil
}

// Close releases the underlying token store.
func (s *Service) Close() error {
	return s.store.Close()
}
