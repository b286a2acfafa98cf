package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// database/sql treats MaxOpenConns=0 as "unlimited" and MaxIdleConns=0 as
// "no idle connections", so zero values are replaced with defaults.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// SaveOperatorSession inserts or replaces an operator session
func (s *pgStore) SaveOperatorSession(ctx context.Context, session *domain.OperatorSession) error {
	operator, err := json.Marshal(session.Operator)
	if err != nil {
		return fmt.Errorf("failed to marshal operator: %w", err)
	}

	row := schema.OperatorSession{
		ID:        session.ID,
		Operator:  operator,
		ExpiresAt: session.ExpiresAt.UTC(),
		CreatedAt: session.CreatedAt.UTC(),
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"operator", "expires_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save operator session: %w", err)
	}

	return nil
}

// GetOperatorSession retrieves a session by ID
func (s *pgStore) GetOperatorSession(ctx context.Context, id string) (*domain.OperatorSession, error) {
	var row schema.OperatorSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get operator session: %w", err)
	}

	var operator domain.Operator
	if err := json.Unmarshal(row.Operator, &operator); err != nil {
		return nil, fmt.Errorf("failed to parse operator of session %s: %w", id, err)
	}

	return &domain.OperatorSession{
		ID:        row.ID,
		Operator:  operator,
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

// DeleteOperatorSession removes a session
func (s *pgStore) DeleteOperatorSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&schema.OperatorSession{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete operator session: %w", err)
	}
	return nil
}

// DeleteExpiredOperatorSessions removes sessions that expired at or before now
func (s *pgStore) DeleteExpiredOperatorSessions(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&schema.OperatorSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired operator sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
