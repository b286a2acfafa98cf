package enrichment

import (
	"encoding/json"
	"fmt"

	"github.com/miko-factory/creamdash/internal/domain"
)

// Batch is a token enriched with its batch data document
type Batch struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    domain.Status `json:"status"`
	StartDate string        `json:"startDate"`
	Product   string        `json:"product"`
	Quantity  string        `json:"quantity"`

	// SecondFileData is the batch data document as fetched
	SecondFileData json.RawMessage `json:"secondFileData"`
	Token          domain.Token    `json:"token"`
}

// Stage names the enrichment step a token failed at
type Stage string

const (
	StageMissingURI           Stage = "missing_uri"
	StageFetchPrimary         Stage = "fetch_primary"
	StageMissingSecondaryFile Stage = "missing_secondary_file"
	StageFetchSecondary       Stage = "fetch_secondary"
	StageParseSecondary       Stage = "parse_secondary"
)

// TokenFailure records why a single token produced no batch
type TokenFailure struct {
	Mint  string `json:"mint"`
	Stage Stage  `json:"stage"`
	Err   error  `json:"-"`
}

func (f TokenFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("token %s: %s", f.Mint, f.Stage)
	}
	return fmt.Sprintf("token %s: %s: %v", f.Mint, f.Stage, f.Err)
}

func (f TokenFailure) Unwrap() error {
	return f.Err
}

// Result is the outcome of enriching a token list
type Result struct {
	// Batches are in the same order as the input tokens they came from
	Batches  []Batch
	Skipped  int
	Failures []TokenFailure

	// Error is set when enrichment as a whole could not run
	Error error
}
