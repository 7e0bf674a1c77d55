package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotJSON(t *testing.T, s *domain.CheckoutSession) []byte {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return b
}

func TestSessionStore_History_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStore(mock)

	mock.ExpectQuery("SELECT session_id, version, reason").
		WithArgs("cs_unknown").
		WillReturnRows(pgxmock.NewRows([]string{"session_id", "version", "reason", "idempotency_key", "request_id", "snapshot", "created_at"}))

	history, err := store.History(context.Background(), "cs_unknown")
	require.NoError(t, err)
	assert.Zero(t, history.Latest)
	assert.Empty(t, history.Versions)
	assert.Nil(t, history.LatestSnapshot())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_History_OrderedVersionsAndReplayIndex(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStore(mock)
	now := time.Now().UTC()

	v1 := &domain.CheckoutSession{ID: "cs_1", Status: domain.StatusNotReadyForPayment}
	v2 := &domain.CheckoutSession{ID: "cs_1", Status: domain.StatusReadyForPayment}

	rows := pgxmock.NewRows([]string{"session_id", "version", "reason", "idempotency_key", "request_id", "snapshot", "created_at"}).
		AddRow("cs_1", 1, "created", "idem-1", "req-1", snapshotJSON(t, v1), now).
		AddRow("cs_1", 2, "updated", "idem-2", "req-2", snapshotJSON(t, v2), now)

	mock.ExpectQuery("SELECT session_id, version, reason").
		WithArgs("cs_1").
		WillReturnRows(rows)

	history, err := store.History(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, 2, history.Latest)
	require.Len(t, history.Versions, 2)
	assert.Equal(t, 1, history.Versions[0].Version)
	assert.Equal(t, domain.ReasonCreated, history.Versions[0].Reason)
	assert.Equal(t, domain.StatusReadyForPayment, history.LatestSnapshot().Status)

	replayed, ok := history.ByIdempotencyKey["idem-1"]
	require.True(t, ok)
	assert.Equal(t, domain.StatusNotReadyForPayment, replayed.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_Append_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStore(mock)
	now := time.Now().UTC()
	snapshot := &domain.CheckoutSession{ID: "cs_1", Status: domain.StatusNotReadyForPayment}

	mock.ExpectExec("INSERT INTO checkout_session_versions").
		WithArgs("cs_1", 1, domain.ReasonCreated, "idem-1", "req-1", snapshotJSON(t, snapshot), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Append(context.Background(), &domain.SessionVersion{
		SessionID:      "cs_1",
		Version:        1,
		Reason:         domain.ReasonCreated,
		IdempotencyKey: "idem-1",
		RequestID:      "req-1",
		Snapshot:       snapshot,
		CreatedAt:      now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_Append_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewSessionStore(mock)

	mock.ExpectExec("INSERT INTO checkout_session_versions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err = store.Append(context.Background(), &domain.SessionVersion{
		SessionID: "cs_1",
		Version:   2,
		Reason:    domain.ReasonUpdated,
		Snapshot:  &domain.CheckoutSession{ID: "cs_1"},
		CreatedAt: time.Now().UTC(),
	})
	assert.True(t, errors.Is(err, ports.ErrVersionConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
