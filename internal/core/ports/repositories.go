package ports

import (
	"context"
	"errors"
	"time"

	"checkout-session-engine/internal/core/domain"
)

// ErrVersionConflict is returned by SessionEventStore.Append when the
// (session id, version) slot has already been claimed by a concurrent
// writer. The caller must re-read history and retry at the next version.
var ErrVersionConflict = errors.New("session version already exists")

// SessionHistory is the full ordered version record of one session.
type SessionHistory struct {
	// Versions in ascending version order.
	Versions []domain.SessionVersion
	// ByIdempotencyKey indexes, for every version ever written, the
	// snapshot produced by the request carrying that key. This enables
	// replay lookups without a second store.
	ByIdempotencyKey map[string]*domain.CheckoutSession
	// Latest is the highest version number, 0 when no versions exist.
	Latest int
}

// LatestSnapshot returns the snapshot of the highest version, nil when
// the session has no versions.
func (h *SessionHistory) LatestSnapshot() *domain.CheckoutSession {
	if len(h.Versions) == 0 {
		return nil
	}
	return h.Versions[len(h.Versions)-1].Snapshot
}

// SessionEventStore is the append-only, versioned record of session
// state transitions. Append must be conditional on (session id,
// version) not existing; that conditional write is the only
// coordination primitive between concurrent writers.
type SessionEventStore interface {
	History(ctx context.Context, sessionID string) (*SessionHistory, error)
	Append(ctx context.Context, version *domain.SessionVersion) error
}

// IdempotencyIndex maps a client idempotency key to a session id,
// first write wins. An empty key means "no dedupe": a fresh session id
// is minted per call without persisting anything.
type IdempotencyIndex interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// ReplayCache is the fast-path store of previously produced responses
// keyed by idempotency key. Best-effort: failures fall through to the
// event store history.
type ReplayCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
