package dashboard

import (
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/timeline"
)

// Query narrows what a view shows
type Query struct {
	Search string
	Status domain.Status
}

// BatchesView lists enriched batches matching a query
type BatchesView struct {
	Batches []enrichment.Batch `json:"batches"`
	Total   int                `json:"total"`
	Skipped int                `json:"skipped"`
}

// RecentView lists the newest batch of each collection
type RecentView struct {
	Batches []enrichment.Batch `json:"batches"`
	Message string             `json:"message,omitempty"`
	Hint    string             `json:"hint,omitempty"`
}

// TimelineView is the production timeline for a query
type TimelineView struct {
	Batches []timeline.Batch `json:"batches"`
	Stats   timeline.Stats   `json:"stats"`
	Message string           `json:"message,omitempty"`
	Hint    string           `json:"hint,omitempty"`
}

// EnrichedBatches filters the snapshot's enriched batches
func (s *Snapshot) EnrichedBatches(q Query) BatchesView {
	return BatchesView{
		Batches: enrichment.Filter(s.Batches, q.Search, q.Status),
		Total:   len(s.Batches),
		Skipped: s.Skipped,
	}
}

// RecentBatches de-duplicates the filtered enriched batches per collection
func (s *Snapshot) RecentBatches(q Query) RecentView {
	filtered := enrichment.Filter(s.Batches, q.Search, q.Status)
	recent := enrichment.RecentBatches(filtered)
	message, hint := enrichment.RecentEmptyState(filtered, recent)
	return RecentView{Batches: recent, Message: message, Hint: hint}
}

// TimelineBatches filters the projected timeline
func (s *Snapshot) TimelineBatches(q Query) TimelineView {
	filtered := timeline.Filter(s.Timeline, q.Search, q.Status)
	message, hint := timeline.EmptyState(s.Tokens, s.Timeline, filtered)
	return TimelineView{Batches: filtered, Stats: s.Stats, Message: message, Hint: hint}
}

// Station returns the aggregate of one station in one batch
func (s *Snapshot) Station(batchID string, station timeline.StationName) (*timeline.StationSelection, error) {
	return timeline.SelectStation(s.Timeline, batchID, station)
}

// Unit returns the detail of one completed unit
func (s *Snapshot) Unit(batchID string, station timeline.StationName, index int) (*timeline.UnitDetail, error) {
	return timeline.SelectUnit(s.Timeline, batchID, station, index)
}
