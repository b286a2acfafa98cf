package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/logger"
)

// DashboardRefreshConfig holds configuration for the dashboard refresh sweeper
type DashboardRefreshConfig struct {
	Interval time.Duration // Time to wait between refreshes
}

// dashboardRefreshSweeper periodically re-derives the dashboard snapshot
type dashboardRefreshSweeper struct {
	config    DashboardRefreshConfig
	dashboard dashboard.Service
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewDashboardRefreshSweeper creates a sweeper that refreshes the dashboard
// on start and then once per interval
func NewDashboardRefreshSweeper(config DashboardRefreshConfig, svc dashboard.Service, clock adapter.Clock) Sweeper {
	return &dashboardRefreshSweeper{
		config:    config,
		dashboard: svc,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *dashboardRefreshSweeper) Name() string {
	return "dashboard-refresh-sweeper"
}

// Start refreshes immediately, then once per interval until stopped
func (s *dashboardRefreshSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting dashboard refresh sweeper", zap.Duration("interval", s.config.Interval))

	for {
		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Dashboard refresh sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Dashboard refresh sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
		}
	}
}

// runCycle runs one refresh. A failure waits for the next cycle.
func (s *dashboardRefreshSweeper) runCycle(ctx context.Context) {
	startTime := s.clock.Now()

	snapshot, err := s.dashboard.Refresh(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, dashboard.ErrClosed) {
			logger.ErrorCtx(ctx, err, zap.String("sweeper", s.Name()))
		}
		return
	}

	logger.InfoCtx(ctx, "Dashboard refresh completed",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("tokens", len(snapshot.Tokens)),
		zap.Duration("duration", s.clock.Since(startTime)))
}

// Stop gracefully stops the sweeper with timeout support
func (s *dashboardRefreshSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping dashboard refresh sweeper")

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Dashboard refresh sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Dashboard refresh sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}
