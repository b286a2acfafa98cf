package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/api/middleware"
	"github.com/miko-factory/creamdash/internal/api/server"
	"github.com/miko-factory/creamdash/internal/config"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/messaging"
	"github.com/miko-factory/creamdash/internal/metadata"
	"github.com/miko-factory/creamdash/internal/operator"
	"github.com/miko-factory/creamdash/internal/providers/jetstream"
	"github.com/miko-factory/creamdash/internal/ratelimit"
	"github.com/miko-factory/creamdash/internal/registry"
	"github.com/miko-factory/creamdash/internal/store"
	"github.com/miko-factory/creamdash/internal/sweeper"
	"github.com/miko-factory/creamdash/internal/walletsource"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "creamdash-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting ice cream factory dashboard API")

	// Initialize adapters
	fs := adapter.NewFileSystem()
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	// Token pipeline
	source := walletsource.NewSource(
		walletsource.Config{APIBaseURL: cfg.Source.APIBaseURL, StrictMints: cfg.Source.StrictMints},
		adapter.NewHTTPClient(cfg.Source.HTTPTimeout),
		jsonAdapter,
	)
	fetcher := metadata.NewFetcher(
		metadata.Config{
			IPFSGateways:    cfg.URI.IPFSGateways,
			ArweaveGateways: cfg.URI.ArweaveGateways,
		},
		adapter.NewHTTPClient(cfg.Enrichment.DocumentTimeout),
		jsonAdapter,
		ratelimit.NewHostLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.Enrichment.RequestsPerSecond,
			Burst:             cfg.Enrichment.Burst,
		}),
	)
	enricher := enrichment.NewEnricher(enrichment.Config{
		Concurrency:          cfg.Enrichment.Concurrency,
		LegacyBatchNumbering: cfg.Enrichment.LegacyBatchNumbering,
	}, fetcher)
	defer enricher.Close()

	// Snapshot events
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			Subject:        cfg.NATS.Subject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Publishing snapshot events", zap.String("subject", cfg.NATS.Subject))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, snapshot events will not be published")
		publisher = messaging.NewNoopPublisher()
	}

	dashboardSvc := dashboard.NewService(source, enricher, publisher, clock, jsonAdapter, adapter.NewJCS())
	defer dashboardSvc.Close()

	// Operator sessions
	roster, err := registry.NewOperatorRegistryLoader(fs, jsonAdapter).Load(cfg.Operator.RosterPath)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load operator roster",
			zap.Error(err),
			zap.String("path", cfg.Operator.RosterPath))
	}
	logger.InfoCtx(ctx, "Loaded operator roster",
		zap.String("path", cfg.Operator.RosterPath),
		zap.Int("operators", len(roster.Operators())))

	var sessionStore store.Store
	if cfg.Database.Enabled() {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)
		sessionStore = store.NewPGStore(db)
	} else {
		logger.WarnCtx(ctx, "Database not configured, operator sessions are kept in memory")
		sessionStore = store.NewMemoryStore()
	}

	operatorSvc := operator.NewService(operator.Config{SessionTTL: cfg.Operator.SessionTTL}, roster, sessionStore, clock)

	// Background sweepers
	sweepers := []sweeper.Sweeper{
		sweeper.NewSessionExpirySweeper(sweeper.SessionExpiryConfig{Interval: cfg.Operator.PurgeInterval}, operatorSvc, clock),
	}
	if cfg.Refresher.Enabled {
		sweepers = append(sweepers, sweeper.NewDashboardRefreshSweeper(
			sweeper.DashboardRefreshConfig{Interval: cfg.Refresher.Interval}, dashboardSvc, clock))
	} else {
		logger.WarnCtx(ctx, "Refresher disabled, the dashboard loads once and then only on manual refresh")
		go func() {
			if _, err := dashboardSvc.Refresh(ctx); err != nil {
				logger.WarnCtx(ctx, "Initial dashboard load failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, len(sweepers)+1)
	var wg sync.WaitGroup
	for _, s := range sweepers {
		wg.Add(1)
		go func(s sweeper.Sweeper) {
			defer wg.Done()
			if err := s.Start(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", s.Name(), err)
			}
		}(s)
	}

	// Create and start server
	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, dashboardSvc, operatorSvc)

	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "api"))
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}

	for _, s := range sweepers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err, zap.String("sweeper", s.Name()))
		}
	}
	cancel()
	wg.Wait()

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
