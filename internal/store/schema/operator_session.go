package schema

import (
	"time"

	"gorm.io/datatypes"
)

// OperatorSession stores a signed-in operator. The operator record is kept
// as JSON as it was when the session started.
type OperatorSession struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	Operator  datatypes.JSON `gorm:"type:jsonb;not null"`
	ExpiresAt time.Time      `gorm:"not null;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (OperatorSession) TableName() string {
	return "operator_sessions"
}
