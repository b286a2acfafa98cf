package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miko-factory/creamdash/internal/domain"
)

// StationName identifies a production station
type StationName string

const (
	Farm   StationName = "Farm"
	Docker StationName = "Docker"
	Mixing StationName = "Mixing"
	Labs   StationName = "Labs"
)

// StationSpec describes where a station sits in the production pipeline
type StationSpec struct {
	Name StationName
	// DisplayName is the label shown in the focus panel
	DisplayName string
	Total       int
	// Offset is the number of units consumed by the stations before this one
	Offset int
}

// Stations lists the pipeline in production order
var Stations = []StationSpec{
	{Name: Farm, DisplayName: "Farm Providers", Total: 9, Offset: 0},
	{Name: Docker, DisplayName: "Docker Station", Total: 5, Offset: 9},
	{Name: Mixing, DisplayName: "Mixing Room", Total: 8, Offset: 14},
	{Name: Labs, DisplayName: "Quality Labs", Total: 7, Offset: 22},
}

// PipelineCapacity is the number of units a batch needs to clear every station
const PipelineCapacity = 29

const idDisplayLen = 8

// Station is the progress of a batch at one station
type Station struct {
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Status    domain.Status  `json:"status"`
	Data      []domain.Token `json:"data"`
}

// Line is a production line; batches currently run on a single line
type Line struct {
	Stations map[StationName]Station `json:"stations"`
}

// Batch is a collection projected onto the production pipeline
type Batch struct {
	// ID is the collection key shortened for display
	ID string `json:"id"`
	// Key is the full collection key
	Key     string         `json:"key"`
	Product string         `json:"product"`
	Status  domain.Status  `json:"status"`
	Tokens  []domain.Token `json:"tokens"`
	Lines   []Line         `json:"lines"`
}

// Collection is a group of tokens sharing a collection key, oldest first
type Collection struct {
	Key     string
	Product string
	Tokens  []domain.Token
}

// Group buckets tokens by collection key. Tokens without a valid collection
// are dropped. Members are ordered by createdAt (then mint) and collections by
// their earliest member (then key), so the result depends only on the token set.
func Group(tokens []domain.Token) []Collection {
	index := make(map[string]int)
	var collections []Collection

	for _, t := range tokens {
		key, ok := t.CollectionKey()
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(collections)
			index[key] = i
			collections = append(collections, Collection{Key: key, Product: productLabel(t.Collection, key)})
		}
		collections[i].Tokens = append(collections[i].Tokens, t)
	}

	for i := range collections {
		members := collections[i].Tokens
		sort.SliceStable(members, func(a, b int) bool {
			return tokenLess(members[a], members[b])
		})
	}

	sort.SliceStable(collections, func(a, b int) bool {
		ea, eb := collections[a].Tokens[0].CreatedAt, collections[b].Tokens[0].CreatedAt
		if !ea.Equal(eb.Time) {
			return ea.Before(eb.Time)
		}
		return collections[a].Key < collections[b].Key
	})

	return collections
}

func tokenLess(a, b domain.Token) bool {
	if !a.CreatedAt.Equal(b.CreatedAt.Time) {
		return a.CreatedAt.Before(b.CreatedAt.Time)
	}
	return a.Mint < b.Mint
}

// productLabel is the collection name, or a label derived from the key.
// The first member to introduce a key names the collection.
func productLabel(c *domain.Collection, key string) string {
	if name := c.DisplayName(); name != "" {
		return name
	}
	return "Collection " + domain.Prefix(key, idDisplayLen)
}

// Project derives the production timeline from raw tokens
func Project(tokens []domain.Token) []Batch {
	collections := Group(tokens)

	batches := make([]Batch, 0, len(collections))
	for _, c := range collections {
		batches = append(batches, project(c))
	}
	return batches
}

func project(c Collection) Batch {
	n := len(c.Tokens)

	stations := make(map[StationName]Station, len(Stations))
	for _, spec := range Stations {
		completed := clamp(n-spec.Offset, 0, spec.Total)
		data := []domain.Token{}
		if completed > 0 {
			data = c.Tokens[spec.Offset : spec.Offset+completed : spec.Offset+completed]
		}
		stations[spec.Name] = Station{
			Completed: completed,
			Total:     spec.Total,
			Status:    stationStatus(spec.Name, completed, spec.Total),
			Data:      data,
		}
	}

	status := domain.StatusProcessing
	if n >= PipelineCapacity {
		status = domain.StatusCompleted
	}

	return Batch{
		ID:      domain.Truncate(c.Key, idDisplayLen),
		Key:     c.Key,
		Product: c.Product,
		Status:  status,
		Tokens:  c.Tokens,
		Lines:   []Line{{Stations: stations}},
	}
}

// stationStatus follows the first station's two-state rule (it always has
// work once a batch exists) and a three-state rule for the others
func stationStatus(name StationName, completed, total int) domain.Status {
	switch {
	case completed == total:
		return domain.StatusCompleted
	case name == Farm || completed > 0:
		return domain.StatusProcessing
	default:
		return domain.StatusPending
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Filter keeps batches whose display id or product contains search
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
			!strings.Contains(strings.ToLower(b.Product), term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Stats counts tokens by whether they take part in the timeline
type Stats struct {
	TotalTokens        int `json:"totalTokens"`
	WithCollections    int `json:"withCollections"`
	WithoutCollections int `json:"withoutCollections"`
	Batches            int `json:"batches"`
}

// ComputeStats summarizes a token list
func ComputeStats(tokens []domain.Token) Stats {
	stats := Stats{TotalTokens: len(tokens)}
	keys := make(map[string]struct{})
	for _, t := range tokens {
		if key, ok := t.CollectionKey(); ok {
			stats.WithCollections++
			keys[key] = struct{}{}
		}
	}
	stats.WithoutCollections = stats.TotalTokens - stats.WithCollections
	stats.Batches = len(keys)
	return stats
}

const (
	EmptyMessageNoTokens      = "No tokens found"
	EmptyHintNoTokens         = "Mint some NFTs to see them in the production timeline"
	EmptyMessageNoCollections = "No tokens with valid collections"
	EmptyMessageNoMatch       = "No batches match the current filters"
	EmptyHintNoMatch          = "Try different search terms or status filters"
)

// EmptyState explains an empty timeline; both strings are empty when filtered has batches
func EmptyState(tokens []domain.Token, batches, filtered []Batch) (message, hint string) {
	switch {
	case len(filtered) > 0:
		return "", ""
	case len(tokens) == 0:
		return EmptyMessageNoTokens, EmptyHintNoTokens
	case len(batches) == 0:
		stats := ComputeStats(tokens)
		return EmptyMessageNoCollections, fmt.Sprintf("%d tokens found but none have valid collections", stats.WithoutCollections)
	default:
		return EmptyMessageNoMatch, EmptyHintNoMatch
	}
}
