package enrichment

import (
	"sort"
	"strings"

	"github.com/miko-factory/creamdash/internal/domain"
)

const (
	EmptyMessageNoBatches = "No batches found"
	EmptyHintNoBatches    = "Process some NFTs to see batches here"
	EmptyMessageNoValid   = "No valid batch data available"
	EmptyHintNoValid      = "All tokens are missing collection or batch data"
)

// RecentBatches keeps the newest batch of every collection, newest first.
// Batches without a collection key or batch data are left out.
func RecentBatches(batches []Batch) []Batch {
	latest := make(map[string]int)
	kept := make([]Batch, 0, len(batches))

	for _, b := range batches {
		key, ok := b.Token.CollectionKey()
		if !ok || len(b.SecondFileData) == 0 {
			continue
		}

		idx, seen := latest[key]
		if !seen {
			latest[key] = len(kept)
			kept = append(kept, b)
			continue
		}
		// Strictly newer only, so the first of equal timestamps stays
		if b.Token.CreatedAt.After(kept[idx].Token.CreatedAt.Time) {
			kept[idx] = b
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Token.CreatedAt.After(kept[j].Token.CreatedAt.Time)
	})

	return kept
}

// RecentEmptyState returns the message and hint shown when RecentBatches
// yields nothing. input is the list RecentBatches was given.
func RecentEmptyState(input, recent []Batch) (message, hint string) {
	switch {
	case len(recent) > 0:
		return "", ""
	case len(input) == 0:
		return EmptyMessageNoBatches, EmptyHintNoBatches
	default:
		return EmptyMessageNoValid, EmptyHintNoValid
	}
}

// Filter returns the batches whose id, name or product contains search
// (case-insensitive) and whose status passes the status filter
func Filter(batches []Batch, search string, status domain.Status) []Batch {
	term := strings.ToLower(search)

	out := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if !b.Status.MatchesFilter(status) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(b.ID), term) &&
			!strings.Contains(strings.ToLower(b.Name), term) &&
			!strings.Contains(strings.ToLower(b.Product), term) {
			continue
		}
		out = append(out, b)
	}
	return out
}
