package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-session-engine/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyStore implements ports.IdempotencyIndex on PostgreSQL.
//
// Resolution races are settled by a conditional insert on the key:
// exactly one writer's candidate session id sticks, everyone else
// re-reads and adopts the winner's id.
type IdempotencyStore struct {
	pool Pool
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(pool Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Resolve maps an idempotency key to a session id, minting one on
// first use. An empty key means no dedupe: a fresh, unpersisted id.
func (s *IdempotencyStore) Resolve(ctx context.Context, key string) (string, error) {
	if key == "" {
		return domain.NewSessionID(), nil
	}

	candidate := domain.NewSessionID()
	now := time.Now().UTC()
	expiresAt := now.Add(domain.IdempotencyTTL)

	insert := `INSERT INTO checkout_idempotency_keys (key, session_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`

	tag, err := s.pool.Exec(ctx, insert, key, candidate, now, expiresAt)
	if err != nil {
		return "", fmt.Errorf("insert idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return candidate, nil
	}

	// Lost the insert race or the key already exists: adopt the winner.
	record, err := s.get(ctx, key)
	if err != nil {
		return "", err
	}
	if record == nil {
		// The existing row expired and was deleted between the insert
		// and the read; one more conditional insert settles it.
		tag, err = s.pool.Exec(ctx, insert, key, candidate, now, expiresAt)
		if err != nil {
			return "", fmt.Errorf("reinsert idempotency key: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return candidate, nil
		}
		record, err = s.get(ctx, key)
		if err != nil {
			return "", err
		}
		if record == nil {
			return "", fmt.Errorf("idempotency key %q unresolvable", key)
		}
	}

	if record.Expired(now) {
		// Re-claim the expired key in place. The WHERE clause keeps the
		// update conditional so racing claimants still converge.
		update := `UPDATE checkout_idempotency_keys
			SET session_id = $2, created_at = $3, expires_at = $4
			WHERE key = $1 AND expires_at <= $3`
		tag, err = s.pool.Exec(ctx, update, key, candidate, now, expiresAt)
		if err != nil {
			return "", fmt.Errorf("reclaim idempotency key: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return candidate, nil
		}
		record, err = s.get(ctx, key)
		if err != nil {
			return "", err
		}
		if record == nil {
			return "", fmt.Errorf("idempotency key %q unresolvable", key)
		}
	}

	return record.SessionID, nil
}

func (s *IdempotencyStore) get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, session_id, created_at, expires_at FROM checkout_idempotency_keys WHERE key = $1`

	record := &domain.IdempotencyRecord{}
	err := s.pool.QueryRow(ctx, query, key).Scan(&record.Key, &record.SessionID, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return record, nil
}
