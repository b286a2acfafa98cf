package timeline

import (
	"fmt"
	"strconv"

	"github.com/miko-factory/creamdash/internal/domain"
)

// createdDateLayout matches the short US date used in unit details
const createdDateLayout = "1/2/2006"

// StationSelection is the aggregate view of one station of one batch
type StationSelection struct {
	BatchID     string        `json:"batchId"`
	Key         string        `json:"key"`
	Station     StationName   `json:"station"`
	DisplayName string        `json:"displayName"`
	Completed   int           `json:"completed"`
	Total       int           `json:"total"`
	Status      domain.Status `json:"status"`
}

// Metric is one parameter row of a unit detail
type Metric struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Status    string `json:"status"`
	// Placeholder marks values that are illustrative rather than measured
	Placeholder bool `json:"placeholder"`
}

// UnitDetail describes one completed unit (token) at a station
type UnitDetail struct {
	BatchID     string       `json:"batchId"`
	Key         string       `json:"key"`
	Station     StationName  `json:"station"`
	SquareIndex int          `json:"squareIndex"`
	Token       domain.Token `json:"token"`
	Data        []Metric     `json:"data"`
}

// LookupStation returns the layout of a named station
func LookupStation(name StationName) (StationSpec, bool) {
	for _, s := range Stations {
		if s.Name == name {
			return s, true
		}
	}
	return StationSpec{}, false
}

// findBatch resolves a batch by full key first and display id second
func findBatch(batches []Batch, batchID string) (*Batch, error) {
	for i := range batches {
		if batches[i].Key == batchID {
			return &batches[i], nil
		}
	}
	for i := range batches {
		if batches[i].ID == batchID {
			return &batches[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchID)
}

func findStation(batch *Batch, name StationName) (StationSpec, Station, error) {
	spec, ok := LookupStation(name)
	if !ok || len(batch.Lines) == 0 {
		return StationSpec{}, Station{}, fmt.Errorf("%w: %s", domain.ErrStationNotFound, name)
	}
	station, ok := batch.Lines[0].Stations[name]
	if !ok {
		return StationSpec{}, Station{}, fmt.Errorf("%w: %s", domain.ErrStationNotFound, name)
	}
	return spec, station, nil
}

// SelectStation returns the aggregate info of a station within a batch
func SelectStation(batches []Batch, batchID string, name StationName) (*StationSelection, error) {
	batch, err := findBatch(batches, batchID)
	if err != nil {
		return nil, err
	}
	spec, station, err := findStation(batch, name)
	if err != nil {
		return nil, err
	}

	return &StationSelection{
		BatchID:     batch.ID,
		Key:         batch.Key,
		Station:     spec.Name,
		DisplayName: spec.DisplayName,
		Completed:   station.Completed,
		Total:       station.Total,
		Status:      station.Status,
	}, nil
}

// SelectUnit returns the detail of a completed unit. Only indices below the
// station's completed count can be selected.
func SelectUnit(batches []Batch, batchID string, name StationName, squareIndex int) (*UnitDetail, error) {
	batch, err := findBatch(batches, batchID)
	if err != nil {
		return nil, err
	}
	_, station, err := findStation(batch, name)
	if err != nil {
		return nil, err
	}

	if squareIndex < 0 || squareIndex >= station.Completed || squareIndex >= len(station.Data) {
		return nil, fmt.Errorf("%w: %s unit %d of %d completed", domain.ErrUnitNotCompleted, name, squareIndex, station.Completed)
	}

	token := station.Data[squareIndex]
	return &UnitDetail{
		BatchID:     batch.ID,
		Key:         batch.Key,
		Station:     name,
		SquareIndex: squareIndex,
		Token:       token,
		Data:        append(baseMetrics(token), stationMetrics(name, squareIndex)...),
	}, nil
}

func baseMetrics(token domain.Token) []Metric {
	name := token.Name
	if name == "" {
		name = "Unnamed"
	}
	return []Metric{
		{Parameter: "Token Name", Value: name, Status: "info"},
		{Parameter: "Mint Address", Value: token.ShortMint(), Status: "info"},
		{Parameter: "Created", Value: token.CreatedAt.UTC().Format(createdDateLayout), Status: "info"},
	}
}

// stationMetrics are illustrative readings keyed by station and position.
// They are not derived from any measurement.
func stationMetrics(name StationName, squareIndex int) []Metric {
	n := squareIndex + 1

	var metrics []Metric
	switch name {
	case Farm:
		metrics = []Metric{
			{Parameter: "Milk Quality", Value: "99.2%", Status: "excellent"},
			{Parameter: "Temperature", Value: "4.1°C", Status: "optimal"},
			{Parameter: "Volume", Value: strconv.Itoa(n*100) + "L", Status: "normal"},
		}
	case Docker:
		metrics = []Metric{
			{Parameter: "Processing Time", Value: "2.3h", Status: "normal"},
			{Parameter: "Container ID", Value: "CTR-" + strconv.Itoa(n), Status: "info"},
			{Parameter: "Status", Value: "Ready", Status: "ready"},
		}
	case Mixing:
		metrics = []Metric{
			{Parameter: "Mix Consistency", Value: "98.7%", Status: "excellent"},
			{Parameter: "Temperature", Value: "18.2°C", Status: "optimal"},
			{Parameter: "Batch Size", Value: strconv.Itoa(n*50) + "L", Status: "normal"},
		}
	case Labs:
		metrics = []Metric{
			{Parameter: "Quality Score", Value: "99.1%", Status: "excellent"},
			{Parameter: "Tests Passed", Value: strconv.Itoa(squareIndex+8) + "/12", Status: "good"},
			{Parameter: "Safety Level", Value: "A+", Status: "excellent"},
		}
	}

	for i := range metrics {
		metrics[i].Placeholder = true
	}
	return metrics
}
