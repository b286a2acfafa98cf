package dto

import (
	"time"

	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/timeline"
)

// TokensResponse is the ingested token list of the current snapshot
type TokensResponse struct {
	SnapshotID  string         `json:"snapshotId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Tokens      []domain.Token `json:"tokens"`
	Stats       timeline.Stats `json:"stats"`
}

// NewTokensResponse builds the token list response from a snapshot
func NewTokensResponse(s *dashboard.Snapshot) TokensResponse {
	tokens := s.Tokens
	if tokens == nil {
		tokens = []domain.Token{}
	}
	return TokensResponse{
		SnapshotID:  s.ID,
		GeneratedAt: s.GeneratedAt,
		Tokens:      tokens,
		Stats:       s.Stats,
	}
}

// RefreshResponse summarizes the snapshot produced by a manual refresh
type RefreshResponse struct {
	SnapshotID  string    `json:"snapshotId"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generatedAt"`
	TokenCount  int       `json:"tokenCount"`
	BatchCount  int       `json:"batchCount"`
	Skipped     int       `json:"skipped"`
}

// NewRefreshResponse builds the refresh summary from a snapshot
func NewRefreshResponse(s *dashboard.Snapshot) RefreshResponse {
	return RefreshResponse{
		SnapshotID:  s.ID,
		Fingerprint: s.Fingerprint,
		GeneratedAt: s.GeneratedAt,
		TokenCount:  len(s.Tokens),
		BatchCount:  len(s.Timeline),
		Skipped:     s.Skipped,
	}
}

// SessionResponse is a signed-in operator session
type SessionResponse struct {
	SessionID string          `json:"sessionId"`
	Operator  domain.Operator `json:"operator"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// NewSessionResponse builds the session response; the badge code is not echoed back
func NewSessionResponse(s *domain.OperatorSession) SessionResponse {
	op := s.Operator
	op.Code = ""
	return SessionResponse{
		SessionID: s.ID,
		Operator:  op,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
