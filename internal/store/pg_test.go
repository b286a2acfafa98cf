package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDSNEnv points the Postgres tests at an existing database instead of a container
const testDSNEnv = "CREAMDASH_TEST_DATABASE_DSN"

var (
	pgOnce      sync.Once
	pgDB        *gorm.DB
	pgErr       error
	pgContainer *postgres.PostgresContainer
)

func TestMain(m *testing.M) {
	code := m.Run()

	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

// openPGTestDB connects once per run and applies db/init_pg_db.sql. Tests are
// skipped when neither a DSN nor a container runtime is available, so the
// memory store suite still runs.
func openPGTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		dsn := os.Getenv(testDSNEnv)
		if dsn == "" {
			pgContainer, pgErr = postgres.Run(ctx,
				"postgres:18-alpine",
				postgres.WithDatabase("creamdash_test"),
				postgres.WithUsername("postgres"),
				postgres.WithPassword("postgres"),
				testcontainers.WithWaitStrategy(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(30*time.Second)),
			)
			if pgErr != nil {
				return
			}
			if dsn, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable"); pgErr != nil {
				return
			}
		}

		pgDB, pgErr = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if pgErr != nil {
			return
		}

		var schemaSQL []byte
		schemaSQL, pgErr = os.ReadFile(filepath.Join("..", "..", "db", "init_pg_db.sql"))
		if pgErr != nil {
			return
		}
		pgErr = pgDB.Exec(string(schemaSQL)).Error
	})

	if pgErr != nil {
		t.Skipf("postgres unavailable: %v", pgErr)
	}
	return pgDB
}

// initPGTestDB gives each test its own transaction, rolled back on cleanup
func initPGTestDB(t *testing.T) Store {
	tx := openPGTestDB(t).Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

func TestPostgreSQLStore(t *testing.T) {
	RunStoreTests(t, initPGTestDB)
}

func TestPGStore_OperatorKeptAsJSONB(t *testing.T) {
	tx := openPGTestDB(t).Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()

	st := NewPGStore(tx)
	session := buildTestSession("MKO_ADIA", time.Now().UTC(), time.Hour)
	require.NoError(t, st.SaveOperatorSession(context.Background(), session))

	var role, code string
	row := tx.Raw(`SELECT operator->>'role', operator->>'code' FROM operator_sessions WHERE id = ?`, session.ID).Row()
	require.NoError(t, row.Scan(&role, &code))
	assert.Equal(t, "Mixing Room", role)
	assert.Equal(t, "MKO_ADIA", code)
}

func TestNormalizeConnectionPoolSettings(t *testing.T) {
	tests := []struct {
		name          string
		open, idle    int
		life, idleT   time.Duration
		expectedOpen  int
		expectedIdle  int
		expectedLife  time.Duration
		expectedIdleT time.Duration
	}{
		{
			name:          "zero values get defaults",
			expectedOpen:  20,
			expectedIdle:  5,
			expectedLife:  5 * time.Minute,
			expectedIdleT: 10 * time.Minute,
		},
		{
			name:          "idle clamped to open",
			open:          3,
			idle:          10,
			life:          time.Minute,
			idleT:         time.Minute,
			expectedOpen:  3,
			expectedIdle:  3,
			expectedLife:  time.Minute,
			expectedIdleT: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, idle, life, idleT := NormalizeConnectionPoolSettings(tt.open, tt.idle, tt.life, tt.idleT)
			assert.Equal(t, tt.expectedOpen, open)
			assert.Equal(t, tt.expectedIdle, idle)
			assert.Equal(t, tt.expectedLife, life)
			assert.Equal(t, tt.expectedIdleT, idleT)
		})
	}
}
