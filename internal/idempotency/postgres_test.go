package idempotency

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

var testDB *gorm.DB

// TestMain initializes the logger and, when possible, a PostgreSQL database.
// Postgres backend tests are skipped when no database is available.
func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	ctx := context.Background()
	var container *postgres.PostgresContainer

	dsn := ""
	if dbHost := os.Getenv("TEST_DB_HOST"); dbHost != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, getenv("TEST_DB_PORT", "5432"), getenv("TEST_DB_USER", "postgres"),
			getenv("TEST_DB_PASSWORD", "postgres"), getenv("TEST_DB_NAME", "test_db"))
	} else {
		var err error
		container, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("PostgreSQL container unavailable, skipping postgres backend tests: %v\n", err)
		} else if dsn, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
		}
	}

	if dsn != "" {
		if err := openTestDB(dsn); err != nil {
			fmt.Printf("Failed to initialize database: %v\n", err)
			testDB = nil
		}
	}

	code := m.Run()

	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}
	os.Exit(code)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openTestDB(dsn string) error {
	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return err
	}

	schemaSQL, err := os.ReadFile(filepath.Join("..", "..", "db", "init_pg_db.sql")) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	testDB = db
	return nil
}

func requireTestDB(t *testing.T) *gorm.DB {
	if testDB == nil {
		t.Skip("Skipping postgres backend test: no database available")
	}
	return testDB
}

func TestPostgresStore_TrySet(t *testing.T) {
	db := requireTestDB(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tx := db.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { tx.Rollback() })

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewPostgresStore(tx, steppingClock(ctrl, &now))
	ctx := context.Background()

	ok, current, err := s.TrySet(ctx, "attest:rcpt_pg", []byte(`{"worker":"a"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, current)

	ok, current, err = s.TrySet(ctx, "attest:rcpt_pg", []byte(`{"worker":"b"}`), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.JSONEq(t, `{"worker":"a"}`, string(current))

	now = now.Add(30 * time.Second)
	value, err := s.Get(ctx, "attest:rcpt_pg")
	require.NoError(t, err)
	assert.JSONEq(t, `{"worker":"a"}`, string(value))

	// The expired row is replaced in place
	now = now.Add(30 * time.Second)
	value, err = s.Get(ctx, "attest:rcpt_pg")
	require.NoError(t, err)
	assert.Nil(t, value)

	ok, _, err = s.TrySet(ctx, "attest:rcpt_pg", []byte(`{"worker":"b"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err = s.Get(ctx, "attest:rcpt_pg")
	require.NoError(t, err)
	assert.JSONEq(t, `{"worker":"b"}`, string(value))

	require.NoError(t, s.Delete(ctx, "attest:rcpt_pg"))
	value, err = s.Get(ctx, "attest:rcpt_pg")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, s.Delete(ctx, "attest:rcpt_pg"))
}

// TestPostgresStore_ConcurrentClaims races claims across connections, outside any test transaction
func TestPostgresStore_ConcurrentClaims(t *testing.T) {
	db := requireTestDB(t)

	key := fmt.Sprintf("race:%d", time.Now().UnixNano())
	t.Cleanup(func() { db.Exec("DELETE FROM idempotency_keys WHERE key = ?", key) })

	s := NewPostgresStore(db, adapter.NewClock())
	ctx := context.Background()

	var established atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := s.TrySet(ctx, key, []byte(`true`), time.Minute)
			assert.NoError(t, err)
			if ok {
				established.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), established.Load())
}
