package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("counts and times queries by operation", func(t *testing.T) {
		meter, reader := newTestMeter(t)
		m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "select", "products", 10*time.Millisecond)
		m.RecordQuery(ctx, "SELECT", "transactions", 10*time.Millisecond)
		m.RecordQuery(ctx, "", "products", time.Millisecond)

		rm := collect(t, reader)
		assert.Equal(t, int64(2), counterValue(t, rm, "db_query_total", AttrDBOperation.String("SELECT")))
		assert.Equal(t, int64(1), counterValue(t, rm, "db_query_total", AttrDBOperation.String("UNKNOWN")))
		assert.Equal(t, uint64(3), histogramCount(t, rm, "db_query_duration_seconds"))
		assert.Zero(t, counterValue(t, rm, "db_slow_query_total"))
	})

	t.Run("counts slow queries by table", func(t *testing.T) {
		meter, reader := newTestMeter(t)
		m, err := NewDBMetrics(meter, DBMetricsConfig{SlowQueryThreshold: 50 * time.Millisecond}, nil)
		require.NoError(t, err)

		m.RecordQuery(ctx, "UPDATE", "products", 120*time.Millisecond)
		m.RecordQuery(ctx, "SELECT", "", 80*time.Millisecond)

		rm := collect(t, reader)
		assert.Equal(t, int64(1), counterValue(t, rm, "db_slow_query_total", AttrDBTable.String("products")))
		assert.Equal(t, int64(1), counterValue(t, rm, "db_slow_query_total", AttrDBTable.String("unknown")))
	})
}

func TestDBMetricsPlugin_RecordsGormStatements(t *testing.T) {
	db := setupTestDB(t)
	meter, reader := newTestMeter(t)
	m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	plugin := NewDBMetricsPlugin(m)
	assert.Equal(t, "db_metrics", plugin.Name())
	require.NoError(t, db.Use(plugin))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&testRow{Name: "LUONG_1"}).Error)
	var got testRow
	require.NoError(t, db.WithContext(ctx).First(&got).Error)
	require.NoError(t, db.WithContext(ctx).Exec("DELETE FROM test_rows").Error)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, rm, "db_query_total", AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(1), counterValue(t, rm, "db_query_total", AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(1), counterValue(t, rm, "db_query_total", AttrDBOperation.String("DELETE")))
}

func TestDBMetrics_PoolStats(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)

	meter, reader := newTestMeter(t)
	m, err := NewDBMetrics(meter, DBMetricsConfig{PoolStatsInterval: 10 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	m.SetSQLDB(sqlDB)

	m.StartPoolStatsCollection(context.Background())
	assert.Eventually(t, func() bool {
		v, ok := gaugeValue(t, collect(t, reader), "db_pool_connections_max")
		return ok && v == 4
	}, 2*time.Second, 10*time.Millisecond)

	m.Stop()
	m.Stop()
}

func TestDBMetrics_PoolStatsWithoutDB(t *testing.T) {
	meter, _ := newTestMeter(t)
	m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	m.StartPoolStatsCollection(context.Background())
	m.Stop()
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := setupTestDB(t)

	m, err := RegisterDBMetrics(db, nil, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, m)

	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	m, err = RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Nil(t, db.Callback().Query().Get("db_metrics:after_query"))
}

func TestDetectOperationType(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT * FROM products", "SELECT"},
		{"  select id from transactions", "SELECT"},
		{"INSERT INTO products VALUES (1)", "INSERT"},
		{"update code_sequences set last_value = 2", "UPDATE"},
		{"DELETE FROM products", "DELETE"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "OTHER"},
		{"", "OTHER"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, detectOperationType(tt.sql))
		})
	}
}
