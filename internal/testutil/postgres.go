//go:build integration

package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/erp/bullion/internal/infrastructure/migration"
	"github.com/erp/bullion/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB starts a disposable PostgreSQL container, applies the SQL
// migrations and returns a GORM handle configured like production.
func NewPostgresDB(t *testing.T, cfg *gorm.Config) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bullion_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	if cfg == nil {
		cfg = &gorm.Config{SkipDefaultTransaction: true, TranslateError: true}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
		if os.Getenv("TEST_DB_DEBUG") != "" {
			cfg.Logger = logger.Default.LogMode(logger.Info)
		}
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	t.Cleanup(func() { _ = sqlDB.Close() })

	runMigrations(t, sqlDB)
	return db
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.New(sqlDB, migrations.FS, nil)
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}
