// Package testutil starts disposable PostgreSQL instances for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
	"github.com/pwannenmacher/credvault/internal/database"
)

// TestDatabase holds a migrated PostgreSQL container and its connection pool
type TestDatabase struct {
	Container    *postgres.PostgresContainer
	DB           *sql.DB
	DBConnString string
}

// SetupPostgres starts PostgreSQL 18, applies the project migrations and
// registers cleanup with t. The test is skipped under -short.
func SetupPostgres(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("credvault_test"),
		postgres.WithUsername("credvault_test"),
		postgres.WithPassword("credvault_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	tdb := &TestDatabase{Container: container}
	t.Cleanup(func() { tdb.cleanup(t) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	tdb.DBConnString = connStr

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	tdb.DB = db

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.NewMigrationExecutor(db).RunMigrations(ctx, MigrationsDir()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return tdb
}

func (tdb *TestDatabase) cleanup(t *testing.T) {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
	if err := tdb.Container.Terminate(context.Background()); err != nil {
		t.Errorf("Failed to terminate PostgreSQL container: %v", err)
	}
}

// MigrationsDir returns the absolute path of the project's migrations directory
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
