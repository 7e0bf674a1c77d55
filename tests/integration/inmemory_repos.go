package integration

import (
	"context"
	"sync"

	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"
)

// --- In-Memory Session Event Store ---

// inMemorySessionStore mirrors the conditional-insert semantics of the
// postgres store: an append succeeds only if the (session id, version)
// slot is free.
type inMemorySessionStore struct {
	mu       sync.RWMutex
	versions map[string][]domain.SessionVersion
}

func newInMemorySessionStore() *inMemorySessionStore {
	return &inMemorySessionStore{versions: make(map[string][]domain.SessionVersion)}
}

func (s *inMemorySessionStore) History(_ context.Context, sessionID string) (*ports.SessionHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := &ports.SessionHistory{ByIdempotencyKey: make(map[string]*domain.CheckoutSession)}
	for _, v := range s.versions[sessionID] {
		h.Versions = append(h.Versions, v)
		h.Latest = v.Version
		if v.IdempotencyKey != "" {
			h.ByIdempotencyKey[v.IdempotencyKey] = v.Snapshot
		}
	}
	return h, nil
}

func (s *inMemorySessionStore) Append(_ context.Context, version *domain.SessionVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.versions[version.SessionID]
	for _, v := range existing {
		if v.Version == version.Version {
			return ports.ErrVersionConflict
		}
	}
	stored := *version
	stored.Snapshot = version.Snapshot.Clone()
	s.versions[version.SessionID] = append(existing, stored)
	return nil
}

// allVersions returns a copy of the stored versions for assertions.
func (s *inMemorySessionStore) allVersions(sessionID string) []domain.SessionVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SessionVersion(nil), s.versions[sessionID]...)
}

// --- In-Memory Idempotency Index ---

type inMemoryIdempotencyIndex struct {
	mu   sync.Mutex
	keys map[string]string
}

func newInMemoryIdempotencyIndex() *inMemoryIdempotencyIndex {
	return &inMemoryIdempotencyIndex{keys: make(map[string]string)}
}

func (r *inMemoryIdempotencyIndex) Resolve(_ context.Context, key string) (string, error) {
	if key == "" {
		return domain.NewSessionID(), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.keys[key]; ok {
		return id, nil
	}
	id := domain.NewSessionID()
	r.keys[key] = id
	return id, nil
}
