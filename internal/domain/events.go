package domain

import "time"

// SnapshotEvent announces that the dashboard derived a new snapshot
type SnapshotEvent struct {
	SnapshotID  string    `json:"snapshot_id"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generated_at"`
	TokenCount  int       `json:"token_count"`
	BatchCount  int       `json:"batch_count"`
}
