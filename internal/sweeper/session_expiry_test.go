package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/miko-factory/creamdash/internal/mocks"
	"github.com/miko-factory/creamdash/internal/sweeper"
)

func TestSessionExpirySweeper_PurgesOnEachTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	sessions := mocks.NewMockOperatorService(ctrl)
	s := sweeper.NewSessionExpirySweeper(sweeper.SessionExpiryConfig{Interval: 5 * time.Minute}, sessions, clock)
	assert.Equal(t, "session-expiry-sweeper", s.Name())

	tick := make(chan time.Time)
	purged := make(chan struct{}, 2)
	clock.EXPECT().After(5 * time.Minute).Return(tick).AnyTimes()
	gomock.InOrder(
		sessions.EXPECT().PurgeExpired(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
			purged <- struct{}{}
			return 0, errors.New("db gone")
		}),
		sessions.EXPECT().PurgeExpired(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
			purged <- struct{}{}
			return 4, nil
		}),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(context.Background())
	}()

	tick <- time.Now()
	<-purged
	tick <- time.Now()
	<-purged

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, <-errCh)
}
