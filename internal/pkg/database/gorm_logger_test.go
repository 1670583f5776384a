package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, 50*time.Millisecond), logs
}

func statement() (string, int64) { return "SELECT 1", 1 }

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed query is an error", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), statement, errors.New("connection reset"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "gorm", entry.LoggerName)
		assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
	})

	t.Run("missing row is silent", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Info)
		l.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
		assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	})

	t.Run("serialization failure is a warning", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), statement, &pgconn.PgError{Code: pgerrcode.SerializationFailure})
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("slow query is a warning", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
		require.Equal(t, 1, logs.FilterMessage("slow query").Len())
	})

	t.Run("fast query only at info", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Warn)
		l.Trace(ctx, time.Now(), statement, nil)
		assert.Zero(t, logs.Len())

		l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), statement, nil)
		assert.Equal(t, 1, logs.FilterMessage("query").Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := observedGormLogger(gormlogger.Silent)
		l.Trace(ctx, time.Now(), statement, errors.New("boom"))
		l.Error(ctx, "boom %d", 1)
		assert.Zero(t, logs.Len())
	})
}
