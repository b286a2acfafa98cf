package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/miko-factory/creamdash/internal/api/rest/dto"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/operator"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListTokens returns the ingested tokens of the current snapshot
	// GET /api/v1/tokens
	ListTokens(c *gin.Context)

	// ListBatches returns the enriched batches
	// GET /api/v1/batches?search=<text>&status=<status>
	ListBatches(c *gin.Context)

	// ListRecentBatches returns the newest batch of each collection
	// GET /api/v1/batches/recent?search=<text>&status=<status>
	ListRecentBatches(c *gin.Context)

	// GetTimeline returns the production timeline
	// GET /api/v1/timeline?search=<text>&status=<status>
	GetTimeline(c *gin.Context)

	// GetStation returns one station of one batch
	// GET /api/v1/timeline/:batch_id/stations/:station
	GetStation(c *gin.Context)

	// GetUnit returns the detail of one completed unit
	// GET /api/v1/timeline/:batch_id/stations/:station/units/:index
	GetUnit(c *gin.Context)

	// Refresh re-fetches the wallet tokens (requires authentication)
	// POST /api/v1/refresh
	Refresh(c *gin.Context)

	// LoginWithBadge signs an operator in from a badge scan
	// POST /api/v1/operator/sessions/badge
	LoginWithBadge(c *gin.Context)

	// LoginWithCode signs an operator in from a typed code
	// POST /api/v1/operator/sessions/code
	LoginWithCode(c *gin.Context)

	// GetSession returns a live operator session
	// GET /api/v1/operator/sessions/:id
	GetSession(c *gin.Context)

	// DeleteSession signs an operator out
	// DELETE /api/v1/operator/sessions/:id
	DeleteSession(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

type handler struct {
	dashboard dashboard.Service
	operators operator.Service
}

// NewHandler creates a new REST API handler
func NewHandler(dashboardSvc dashboard.Service, operatorSvc operator.Service) Handler {
	return &handler{
		dashboard: dashboardSvc,
		operators: operatorSvc,
	}
}

// snapshot returns the current snapshot and tags the response with its
// fingerprint. It returns false when the response has already been written.
func (h *handler) snapshot(c *gin.Context) (*dashboard.Snapshot, bool) {
	s, err := h.dashboard.State().Ready()
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return nil, false
	}

	etag := fmt.Sprintf("%q", s.Fingerprint)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return nil, false
	}

	return s, true
}

func (h *handler) ListTokens(c *gin.Context) {
	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.NewTokensResponse(s))
}

func (h *handler) ListBatches(c *gin.Context) {
	params, ok := parseBatchQuery(c)
	if !ok {
		return
	}

	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.EnrichedBatches(params.Query()))
}

func (h *handler) ListRecentBatches(c *gin.Context) {
	params, ok := parseBatchQuery(c)
	if !ok {
		return
	}

	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.RecentBatches(params.Query()))
}

func (h *handler) GetTimeline(c *gin.Context) {
	params, ok := parseBatchQuery(c)
	if !ok {
		return
	}

	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.TimelineBatches(params.Query()))
}

func (h *handler) GetStation(c *gin.Context) {
	var params StationPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	station, err := parseStationName(params.Station)
	if err != nil {
		respondError(c, err, "Failed to get station")
		return
	}

	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	selection, err := s.Station(params.BatchID, station)
	if err != nil {
		respondError(c, err, "Failed to get station")
		return
	}

	c.JSON(http.StatusOK, selection)
}

func (h *handler) GetUnit(c *gin.Context) {
	var params UnitPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	station, err := parseStationName(params.Station)
	if err != nil {
		respondError(c, err, "Failed to get unit")
		return
	}

	s, ok := h.snapshot(c)
	if !ok {
		return
	}

	unit, err := s.Unit(params.BatchID, station, params.Index)
	if err != nil {
		respondError(c, err, "Failed to get unit")
		return
	}

	c.JSON(http.StatusOK, unit)
}

func (h *handler) Refresh(c *gin.Context) {
	s, err := h.dashboard.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to refresh dashboard")
		return
	}

	c.Header("ETag", fmt.Sprintf("%q", s.Fingerprint))
	c.JSON(http.StatusOK, dto.NewRefreshResponse(s))
}

func (h *handler) LoginWithBadge(c *gin.Context) {
	var req dto.BadgeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	session, err := h.operators.LoginWithBadge(c.Request.Context(), req.OCRText)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}

	c.JSON(http.StatusCreated, dto.NewSessionResponse(session))
}

func (h *handler) LoginWithCode(c *gin.Context) {
	var req dto.CodeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	session, err := h.operators.LoginWithCode(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}

	c.JSON(http.StatusCreated, dto.NewSessionResponse(session))
}

func (h *handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "Session ID is required")
		return
	}

	session, err := h.operators.Load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load session")
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(session))
}

func (h *handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "Session ID is required")
		return
	}

	if err := h.operators.Clear(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) HealthCheck(c *gin.Context) {
	_, err := h.dashboard.State().Ready()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "creamdash-api",
		"ready":   err == nil,
	})
}

// parseBatchQuery binds and validates the listing filters, responding on failure
func parseBatchQuery(c *gin.Context) (*BatchQueryParams, bool) {
	params, err := ParseBatchQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return nil, false
	}

	if err := params.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return nil, false
	}

	return params, true
}
