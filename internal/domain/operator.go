package domain

import "time"

// Operator is a factory operator who can sign in at a station
type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	// Code is printed on the operator's badge
	Code string `json:"code,omitempty"`
}

// OperatorSession is a signed-in operator
type OperatorSession struct {
	ID        string    `json:"id"`
	Operator  Operator  `json:"operator"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now
func (s *OperatorSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
