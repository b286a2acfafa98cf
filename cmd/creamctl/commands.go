package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/timeline"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the wallet's tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), s.Tokens)
		}
		renderTokens(cmd.OutOrStdout(), s)
		return nil
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List enriched batches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		s, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		view := s.EnrichedBatches(q)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderBatches(cmd.OutOrStdout(), view.Batches, "", "")
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d batches, %d tokens skipped\n", len(view.Batches), view.Total, view.Skipped)
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the newest batch of each collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		s, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		view := s.RecentBatches(q)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderBatches(cmd.OutOrStdout(), view.Batches, view.Message, view.Hint)
		return nil
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show production progress per batch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		s, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		view := s.TimelineBatches(q)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderTimeline(cmd.OutOrStdout(), view)
		return nil
	},
}

var unitCmd = &cobra.Command{
	Use:   "unit <batch-id> <station> <index>",
	Short: "Show the detail of one completed unit",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[2])
		if err != nil || index < 0 {
			return fmt.Errorf("index must be a non-negative integer: %q", args[2])
		}
		station, err := parseStation(args[1])
		if err != nil {
			return err
		}
		s, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		unit, err := s.Unit(args[0], station, index)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), unit)
		}
		renderUnit(cmd.OutOrStdout(), unit)
		return nil
	},
}

// maxStatusLength matches the API limit on the status filter
const maxStatusLength = 64

func queryFromFlags() (dashboard.Query, error) {
	st := domain.Status(strings.TrimSpace(status))
	if st == "" {
		st = domain.StatusAll
	}
	if len(st) > maxStatusLength {
		return dashboard.Query{}, fmt.Errorf("status must be at most %d characters", maxStatusLength)
	}
	return dashboard.Query{Search: strings.TrimSpace(search), Status: st}, nil
}

func parseStation(raw string) (timeline.StationName, error) {
	for _, spec := range timeline.Stations {
		if strings.EqualFold(string(spec.Name), raw) {
			return spec.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrStationNotFound, raw)
}
