package domain

import "time"

// IdempotencyTTL bounds how long a key keeps resolving to the same
// session id. After expiry the key may be re-claimed by a new session.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord maps a client-supplied idempotency key to the
// session id it minted. First write wins; concurrent claimants of the
// same key must all resolve to one session id.
type IdempotencyRecord struct {
	Key       string    `json:"key"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its TTL at the given time.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
