package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/config"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/messaging"
	"github.com/miko-factory/creamdash/internal/metadata"
	"github.com/miko-factory/creamdash/internal/ratelimit"
	"github.com/miko-factory/creamdash/internal/walletsource"
)

var (
	configFile string
	envPath    string
	asJSON     bool
	timeout    time.Duration
	search     string
	status     string
)

var rootCmd = &cobra.Command{
	Use:   "creamctl",
	Short: "Inspect the ice cream factory wallet from the terminal",
	Long: `creamctl fetches the factory wallet's tokens, enriches them with their
batch documents and prints the same views the dashboard serves.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall fetch timeout")

	for _, cmd := range []*cobra.Command{batchesCmd, recentCmd, timelineCmd} {
		cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by id, name or product")
		cmd.Flags().StringVar(&status, "status", "all", "Filter by batch status, e.g. completed or processing (all matches everything)")
	}

	rootCmd.AddCommand(tokensCmd, batchesCmd, recentCmd, timelineCmd, unitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSnapshot runs the token pipeline once
func loadSnapshot(ctx context.Context) (*dashboard.Snapshot, error) {
	cfg, err := config.LoadCLIConfig(configFile, envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(logger.Config{Debug: cfg.Debug, SentryDSN: cfg.SentryDSN}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Flush(time.Second)

	jsonAdapter := adapter.NewJSON()
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

	svc := dashboard.NewService(source, enricher, messaging.NewNoopPublisher(), adapter.NewClock(), jsonAdapter, adapter.NewJCS())
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return svc.Refresh(ctx)
}
