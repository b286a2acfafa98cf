package rest

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/timeline"
)

const (
	MAX_SEARCH_LENGTH = 256
	MAX_STATUS_LENGTH = 64
)

// BatchQueryParams holds query parameters shared by the batch and timeline listings.
// Status is matched exactly against the batch status, which batch documents may
// set to any value; "all" or empty matches everything.
type BatchQueryParams struct {
	Search string        `form:"search"`
	Status domain.Status `form:"status,default=all"`
}

// Validate validates the query parameters
func (p *BatchQueryParams) Validate() error {
	if len(p.Search) > MAX_SEARCH_LENGTH {
		return fmt.Errorf("search must be at most %d characters", MAX_SEARCH_LENGTH)
	}
	if len(p.Status) > MAX_STATUS_LENGTH {
		return fmt.Errorf("status must be at most %d characters", MAX_STATUS_LENGTH)
	}
	return nil
}

// Query converts the parameters into a dashboard query
func (p *BatchQueryParams) Query() dashboard.Query {
	return dashboard.Query{Search: p.Search, Status: p.Status}
}

// ParseBatchQuery parses query parameters for the batch and timeline listings
func ParseBatchQuery(c *gin.Context) (*BatchQueryParams, error) {
	var params BatchQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	params.Search = strings.TrimSpace(params.Search)
	params.Status = domain.Status(strings.TrimSpace(string(params.Status)))
	return &params, nil
}

// StationPathParams holds path parameters for GET /timeline/:batch_id/stations/:station
type StationPathParams struct {
	BatchID string `uri:"batch_id" binding:"required"`
	Station string `uri:"station" binding:"required"`
}

// UnitPathParams holds path parameters for GET /timeline/:batch_id/stations/:station/units/:index
type UnitPathParams struct {
	BatchID string `uri:"batch_id" binding:"required"`
	Station string `uri:"station" binding:"required"`
	Index   int    `uri:"index" binding:"min=0"`
}

// parseStationName resolves a station path segment, ignoring case
func parseStationName(raw string) (timeline.StationName, error) {
	for _, spec := range timeline.Stations {
		if strings.EqualFold(string(spec.Name), raw) {
			return spec.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrStationNotFound, raw)
}
