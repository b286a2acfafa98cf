package operator_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/mocks"
	"github.com/miko-factory/creamdash/internal/operator"
	"github.com/miko-factory/creamdash/internal/registry"
	"github.com/miko-factory/creamdash/internal/store"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var (
	signInTime = time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)
	roster     = registry.NewOperatorRegistry([]domain.Operator{
		{ID: "op1", Name: "Fatima Bennani", Role: "Mixing Room", Code: "MKO_FBEN"},
		{ID: "op2", Name: "Jean Dupont", Role: "Packaging", Code: "MKO_JDUP"},
	})
)

type testServiceMocks struct {
	ctrl    *gomock.Controller
	clock   *mocks.MockClock
	store   store.Store
	service operator.Service
}

func setupTestService(t *testing.T) *testServiceMocks {
	ctrl := gomock.NewController(t)
	tm := &testServiceMocks{
		ctrl:  ctrl,
		clock: mocks.NewMockClock(ctrl),
		store: store.NewMemoryStore(),
	}
	tm.service = operator.NewService(operator.Config{SessionTTL: 8 * time.Hour}, roster, tm.store, tm.clock)
	return tm
}

func TestLoginWithBadge(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		expectedID string
		expectErr  error
	}{
		{
			name:       "code inside OCR noise",
			text:       "MIKO FACTORY\nID: MKO_JDUP\nPackaging",
			expectedID: "op2",
		},
		{
			name:       "first roster entry wins",
			text:       "MKO_JDUP MKO_FBEN",
			expectedID: "op1",
		},
		{
			name:      "lowercase code is not recognized",
			text:      "mko_fben",
			expectErr: domain.ErrOperatorNotFound,
		},
		{
			name:      "blank text",
			text:      "  \n ",
			expectErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestService(t)
			defer tm.ctrl.Finish()
			tm.clock.EXPECT().Now().Return(signInTime).AnyTimes()

			session, err := tm.service.LoginWithBadge(context.Background(), tt.text)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, session)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, session.Operator.ID)
			assert.Equal(t, signInTime, session.CreatedAt)
			assert.Equal(t, signInTime.Add(8*time.Hour), session.ExpiresAt)

			stored, err := tm.store.GetOperatorSession(context.Background(), session.ID)
			require.NoError(t, err)
			assert.Equal(t, session.Operator, stored.Operator)
		})
	}
}

func TestLoginWithCode(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()
	tm.clock.EXPECT().Now().Return(signInTime).AnyTimes()

	session, err := tm.service.LoginWithCode(context.Background(), "  4711 ")
	require.NoError(t, err)
	assert.Equal(t, domain.Operator{ID: "4711", Name: "Operator 4711", Role: operator.ManualRole}, session.Operator)

	_, err = tm.service.LoginWithCode(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(signInTime),
		tm.clock.EXPECT().Now().Return(signInTime.Add(time.Hour)),
		tm.clock.EXPECT().Now().Return(signInTime.Add(8*time.Hour)),
	)

	session, err := tm.service.LoginWithCode(context.Background(), "4711")
	require.NoError(t, err)

	loaded, err := tm.service.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)

	// expiry is exclusive; the expired session is removed from the store
	_, err = tm.service.Load(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = tm.store.GetOperatorSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLoad_MalformedID(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	_, err := tm.service.Load(context.Background(), "not-a-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestClear(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()
	tm.clock.EXPECT().Now().Return(signInTime).AnyTimes()

	session, err := tm.service.LoginWithBadge(context.Background(), "MKO_FBEN")
	require.NoError(t, err)

	require.NoError(t, tm.service.Clear(context.Background(), session.ID))
	_, err = tm.service.Load(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.NoError(t, tm.service.Clear(context.Background(), "garbage"))
}

func TestStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	st := mocks.NewMockStore(ctrl)
	svc := operator.NewService(operator.Config{SessionTTL: time.Hour}, roster, st, clock)

	clock.EXPECT().Now().Return(signInTime).AnyTimes()
	st.EXPECT().SaveOperatorSession(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	_, err := svc.LoginWithBadge(context.Background(), "MKO_FBEN")
	assert.EqualError(t, err, "connection refused")
}

func TestPurgeExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	st := mocks.NewMockStore(ctrl)
	svc := operator.NewService(operator.Config{SessionTTL: time.Hour}, roster, st, clock)

	clock.EXPECT().Now().Return(signInTime)
	st.EXPECT().DeleteExpiredOperatorSessions(gomock.Any(), signInTime).Return(int64(3), nil)

	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
