package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"
)

// SessionStore implements ports.SessionEventStore on PostgreSQL.
//
// Versions live in checkout_session_versions keyed by (session_id,
// version). Appends are conditional inserts: ON CONFLICT DO NOTHING
// with zero rows affected means a concurrent writer already claimed
// the slot.
type SessionStore struct {
	pool Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// History loads every version of a session in ascending version order,
// plus the idempotency-key index used for replay lookups. An unknown
// session yields an empty history, not an error.
func (s *SessionStore) History(ctx context.Context, sessionID string) (*ports.SessionHistory, error) {
	query := `SELECT session_id, version, reason, idempotency_key, request_id, snapshot, created_at
		FROM checkout_session_versions WHERE session_id = $1 ORDER BY version`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	history := &ports.SessionHistory{
		ByIdempotencyKey: make(map[string]*domain.CheckoutSession),
	}
	for rows.Next() {
		var v domain.SessionVersion
		var snapshotJSON []byte
		if err := rows.Scan(&v.SessionID, &v.Version, &v.Reason, &v.IdempotencyKey, &v.RequestID, &snapshotJSON, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session version: %w", err)
		}
		snapshot := &domain.CheckoutSession{}
		if err := json.Unmarshal(snapshotJSON, snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot v%d: %w", v.Version, err)
		}
		v.Snapshot = snapshot
		history.Versions = append(history.Versions, v)
		if v.IdempotencyKey != "" {
			history.ByIdempotencyKey[v.IdempotencyKey] = snapshot
		}
		if v.Version > history.Latest {
			history.Latest = v.Version
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return history, nil
}

// Append writes one version conditionally. ports.ErrVersionConflict
// signals a lost race; the caller re-reads history and retries with
// the next version number.
func (s *SessionStore) Append(ctx context.Context, v *domain.SessionVersion) error {
	snapshotJSON, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `INSERT INTO checkout_session_versions (session_id, version, reason, idempotency_key, request_id, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, version) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		v.SessionID, v.Version, v.Reason, v.IdempotencyKey, v.RequestID, snapshotJSON, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrVersionConflict
	}
	return nil
}
