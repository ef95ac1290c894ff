package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   int
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("b2b_timing:before_query"))
}

func TestRegisterDBTracing_EmitsSpans(t *testing.T) {
	rec := newRecorder(t)
	db := openSQLite(t)

	cfg := DBTracingConfig{Enabled: true, SlowQueryThresh: time.Second, DBName: "b2b"}
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("b2b_timing:before_query"))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{ID: 1, Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var dbSpans int
	for _, s := range rec.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans++
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
}

func TestAnnotateStatement(t *testing.T) {
	rec := newRecorder(t)
	db := openSQLite(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "db.query")
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))

	tx := db.WithContext(ctx)
	tx.Statement.Table = "orders"
	tx.Statement.RowsAffected = 3
	tx.Error = errors.New("deadlock detected")

	annotateStatement(tx, 100*time.Millisecond)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.Equal(t, "orders", attrs["db.sql.table"].AsString())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.GreaterOrEqual(t, attrs["db.query_duration_ms"].AsInt64(), int64(1000))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestAnnotateStatement_NotFoundIsNotAnError(t *testing.T) {
	rec := newRecorder(t)
	db := openSQLite(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "db.query")
	tx := db.WithContext(ctx)
	tx.Error = gorm.ErrRecordNotFound

	annotateStatement(tx, time.Second)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
	_, slow := attrMap(ended[0].Attributes())["db.slow_query"]
	assert.False(t, slow)
}

func TestAnnotateStatement_NoRecordingSpan(t *testing.T) {
	db := openSQLite(t)
	tx := db.WithContext(context.Background())
	assert.NotPanics(t, func() { annotateStatement(tx, time.Millisecond) })
}
