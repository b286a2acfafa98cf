package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miko-factory/creamdash/internal/domain"
)

// RunStoreTests runs the store test suite against an implementation.
// initDB is called before each test and returns a store with a clean state.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	t.Run("SaveAndGetOperatorSession", func(t *testing.T) {
		testSaveAndGetOperatorSession(t, initDB(t))
	})
	t.Run("SaveReplacesSession", func(t *testing.T) {
		testSaveReplacesSession(t, initDB(t))
	})
	t.Run("GetMissingSession", func(t *testing.T) {
		testGetMissingSession(t, initDB(t))
	})
	t.Run("DeleteOperatorSession", func(t *testing.T) {
		testDeleteOperatorSession(t, initDB(t))
	})
	t.Run("DeleteExpiredOperatorSessions", func(t *testing.T) {
		testDeleteExpiredOperatorSessions(t, initDB(t))
	})
}

// buildTestSession creates a session for the given operator code
func buildTestSession(code string, createdAt time.Time, ttl time.Duration) *domain.OperatorSession {
	return &domain.OperatorSession{
		ID: uuid.NewString(),
		Operator: domain.Operator{
			ID:   "op-" + code,
			Name: "Operator " + code,
			Role: "Mixing Room",
			Code: code,
		},
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
}

func testSaveAndGetOperatorSession(t *testing.T, st Store) {
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Second)
	session := buildTestSession("MKO_FBEN", created, time.Hour)

	require.NoError(t, st.SaveOperatorSession(ctx, session))

	got, err := st.GetOperatorSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Operator, got.Operator)
	assert.True(t, session.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
}

func testSaveReplacesSession(t *testing.T, st Store) {
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Second)
	session := buildTestSession("MKO_FBEN", created, time.Hour)
	require.NoError(t, st.SaveOperatorSession(ctx, session))

	session.ExpiresAt = created.Add(2 * time.Hour)
	session.Operator.Role = "Packaging"
	require.NoError(t, st.SaveOperatorSession(ctx, session))

	got, err := st.GetOperatorSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Packaging", got.Operator.Role)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
}

func testGetMissingSession(t *testing.T, st Store) {
	_, err := st.GetOperatorSession(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func testDeleteOperatorSession(t *testing.T, st Store) {
	ctx := context.Background()
	session := buildTestSession("MKO_JDUP", time.Now().UTC(), time.Hour)
	require.NoError(t, st.SaveOperatorSession(ctx, session))

	require.NoError(t, st.DeleteOperatorSession(ctx, session.ID))
	_, err := st.GetOperatorSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// deleting twice is fine
	assert.NoError(t, st.DeleteOperatorSession(ctx, session.ID))
}

func testDeleteExpiredOperatorSessions(t *testing.T, st Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	expired := buildTestSession("MKO_JDUP", now.Add(-2*time.Hour), time.Hour)
	expiresNow := buildTestSession("MKO_ADIA", now.Add(-time.Hour), time.Hour)
	live := buildTestSession("MKO_PMAR", now, time.Hour)
	for _, s := range []*domain.OperatorSession{expired, expiresNow, live} {
		require.NoError(t, st.SaveOperatorSession(ctx, s))
	}

	deleted, err := st.DeleteExpiredOperatorSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = st.GetOperatorSession(ctx, live.ID)
	assert.NoError(t, err)
	_, err = st.GetOperatorSession(ctx, expired.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
