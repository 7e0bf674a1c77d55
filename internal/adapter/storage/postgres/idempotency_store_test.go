package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_Resolve_EmptyKeyMintsFreshID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewIdempotencyStore(mock)

	a, err := store.Resolve(context.Background(), "")
	require.NoError(t, err)
	b, err := store.Resolve(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "cs_"))
	assert.NotEqual(t, a, b)
	// No dedupe: nothing touches the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Resolve_FirstWriterWins(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewIdempotencyStore(mock)

	mock.ExpectExec("INSERT INTO checkout_idempotency_keys").
		WithArgs("idem-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := store.Resolve(context.Background(), "idem-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "cs_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Resolve_LoserAdoptsExistingMapping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewIdempotencyStore(mock)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO checkout_idempotency_keys").
		WithArgs("idem-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT key, session_id").
		WithArgs("idem-1").
		WillReturnRows(pgxmock.NewRows([]string{"key", "session_id", "created_at", "expires_at"}).
			AddRow("idem-1", "cs_existing", now.Add(-time.Hour), now.Add(23*time.Hour)))

	id, err := store.Resolve(context.Background(), "idem-1")
	require.NoError(t, err)
	assert.Equal(t, "cs_existing", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Resolve_ExpiredKeyIsReclaimed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewIdempotencyStore(mock)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO checkout_idempotency_keys").
		WithArgs("idem-old", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT key, session_id").
		WithArgs("idem-old").
		WillReturnRows(pgxmock.NewRows([]string{"key", "session_id", "created_at", "expires_at"}).
			AddRow("idem-old", "cs_stale", now.Add(-48*time.Hour), now.Add(-24*time.Hour)))
	mock.ExpectExec("UPDATE checkout_idempotency_keys").
		WithArgs("idem-old", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	id, err := store.Resolve(context.Background(), "idem-old")
	require.NoError(t, err)
	assert.NotEqual(t, "cs_stale", id)
	assert.True(t, strings.HasPrefix(id, "cs_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
