// Package session manages the remote service's SSE sessions: acquiring them
// through the handshake stream and caching them per (endpoint, credential)
// pair so repeat tool calls skip the handshake entirely.
package session

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lumen-ai/lumen-cli/logger"
)

// Record is one cached session. Timestamps are epoch milliseconds.
type Record struct {
	SessionID string `json:"sessionId"`
	Endpoint  string `json:"endpoint"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Valid reports whether the record is still usable at the given time.
func (r Record) Valid(now time.Time) bool {
	return now.UnixMilli() < r.ExpiresAt
}

// Key builds the composite cache key. Distinct credentials against the same
// endpoint never share a session.
func Key(endpoint, credential string) string {
	return endpoint + "|" + credential
}

// Backend persists the session map. Implementations must treat a missing or
// unreadable store as empty rather than failing the caller.
type Backend interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
}

// Acquirer performs the actual session handshake on a cache miss.
type Acquirer interface {
	Acquire(ctx context.Context, endpoint, credential string) (string, error)
}

// DefaultTTL is the client-side validity window for a session, measured from
// acquisition. The service issues hour-scale sessions; we expire a little
// early rather than rely on the server to invalidate.
const DefaultTTL = 55 * time.Minute

// Store caches session ids per (endpoint, credential) key.
type Store struct {
	backend  Backend
	acquirer Acquirer
	ttl      time.Duration
	logger   logger.Logger
	group    singleflight.Group
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the session validity window.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a session store backed by the given backend and acquirer.
func NewStore(backend Backend, acquirer Acquirer, log logger.Logger, options ...StoreOption) *Store {
	s := &Store{
		backend:  backend,
		acquirer: acquirer,
		ttl:      DefaultTTL,
		logger:   log.WithPrefix("[session]"),
		now:      time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// load returns the current session map, treating any backend failure as an
// empty store. Sessions are advisory; a lost cache costs one handshake, not
// correctness.
func (s *Store) load(ctx context.Context) map[string]Record {
	records, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Debug("failed to load session store, treating as empty: %v", err)
		return map[string]Record{}
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records
}

// save persists the session map, tolerating failures. A failed persist
// degrades to "acquire every time" but never blocks the caller.
func (s *Store) save(ctx context.Context, records map[string]Record) {
	if err := s.backend.Save(ctx, records); err != nil {
		s.logger.Warn("failed to persist session store: %v", err)
	}
}

// Acquire returns a session id for the (endpoint, credential) pair, reusing a
// cached unexpired session when one exists. Concurrent calls for the same key
// collapse into a single handshake.
func (s *Store) Acquire(ctx context.Context, endpoint, credential string) (string, error) {
	key := Key(endpoint, credential)
	id, err, _ := s.group.Do(key, func() (any, error) {
		records := s.load(ctx)
		if rec, ok := records[key]; ok && rec.Valid(s.now()) {
			s.logger.Trace("reusing session %s for %s", rec.SessionID, endpoint)
			return rec.SessionID, nil
		}

		sessionID, err := s.acquirer.Acquire(ctx, endpoint, credential)
		if err != nil {
			return "", err
		}

		now := s.now()
		records[key] = Record{
			SessionID: sessionID,
			Endpoint:  endpoint,
			CreatedAt: now.UnixMilli(),
			ExpiresAt: now.Add(s.ttl).UnixMilli(),
		}
		s.save(ctx, records)
		s.logger.Debug("acquired session %s for %s", sessionID, endpoint)
		return sessionID, nil
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

// Clear removes every cached session.
func (s *Store) Clear(ctx context.Context) {
	s.save(ctx, map[string]Record{})
}

// Prune removes expired sessions, keeping valid ones.
func (s *Store) Prune(ctx context.Context) {
	records := s.load(ctx)
	now := s.now()
	kept := make(map[string]Record, len(records))
	for key, rec := range records {
		if rec.Valid(now) {
			kept[key] = rec
		}
	}
	s.save(ctx, kept)
}

// Records returns a snapshot of the cached sessions.
func (s *Store) Records(ctx context.Context) map[string]Record {
	return s.load(ctx)
}
