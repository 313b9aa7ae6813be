// Package testutil provides common test utilities for the ledger service.
// It contains helpers for setting up databases, seeding the registries and
// exercising gin handlers.
package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/bullion/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM handle backed by sqlmock.
// The connection is closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory sqlite database with the ledger
// schema. The pool holds one connection so every transaction sees the same
// database and concurrent writers queue instead of failing with SQLITE_BUSY.
func NewSQLiteDB(t *testing.T, cfg *gorm.Config) *gorm.DB {
	t.Helper()

	if cfg == nil {
		cfg = &gorm.Config{SkipDefaultTransaction: true, TranslateError: true}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...), "Failed to migrate ledger schema")
	return db
}

// Registry holds the ids of seeded stores, staff and customers.
type Registry struct {
	StoreA    uuid.UUID
	StoreB    uuid.UUID
	Staff     uuid.UUID
	CustomerA uuid.UUID
	CustomerB uuid.UUID
}

// SeedRegistry inserts two stores, one staff member and two customers.
func SeedRegistry(t *testing.T, db *gorm.DB) Registry {
	t.Helper()

	reg := Registry{
		StoreA:    uuid.New(),
		StoreB:    uuid.New(),
		Staff:     uuid.New(),
		CustomerA: uuid.New(),
		CustomerB: uuid.New(),
	}

	stores := []models.StoreModel{
		{BaseModel: models.BaseModel{ID: reg.StoreA}, Name: "Cửa hàng Quận 1"},
		{BaseModel: models.BaseModel{ID: reg.StoreB}, Name: "Cửa hàng Quận 5"},
	}
	require.NoError(t, db.Create(&stores).Error)

	staff := models.StaffModel{BaseModel: models.BaseModel{ID: reg.Staff}, Name: "Trần Thu Ngân", StoreID: &reg.StoreA}
	require.NoError(t, db.Create(&staff).Error)

	customers := []models.CustomerModel{
		{BaseModel: models.BaseModel{ID: reg.CustomerA}, Name: "Nguyễn Văn An", Phone: "0901000001"},
		{BaseModel: models.BaseModel{ID: reg.CustomerB}, Name: "Lê Thị Bình", Phone: "0901000002"},
	}
	require.NoError(t, db.Create(&customers).Error)

	return reg
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// Day returns 05:00 UTC of the given date, which is noon of the same
// business day in Ho Chi Minh City.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 5, 0, 0, 0, time.UTC)
}
