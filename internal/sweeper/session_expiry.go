package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/operator"
)

// SessionExpiryConfig holds configuration for the session expiry sweeper
type SessionExpiryConfig struct {
	Interval time.Duration
}

type sessionExpirySweeper struct {
	config    SessionExpiryConfig
	sessions  operator.Service
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewSessionExpirySweeper creates a sweeper that purges expired operator sessions
func NewSessionExpirySweeper(config SessionExpiryConfig, sessions operator.Service, clock adapter.Clock) Sweeper {
	return &sessionExpirySweeper{
		config:    config,
		sessions:  sessions,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *sessionExpirySweeper) Name() string {
	return "session-expiry-sweeper"
}

func (s *sessionExpirySweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting session expiry sweeper", zap.Duration("interval", s.config.Interval))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Session expiry sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Session expiry sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
			s.runCycle(ctx)
		}
	}
}

func (s *sessionExpirySweeper) runCycle(ctx context.Context) {
	deleted, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err, zap.String("sweeper", s.Name()))
		}
		return
	}

	if deleted > 0 {
		logger.InfoCtx(ctx, "Purged expired operator sessions", zap.Int64("deleted", deleted))
	}
}

func (s *sessionExpirySweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Session expiry sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
