package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Options(t *testing.T) {
	log, _ := observed()
	gl := NewGormLogger(log, gormlogger.Info,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false))

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	quiet, ok := gl.LogMode(gormlogger.Silent).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Silent, quiet.level)
	assert.Equal(t, gormlogger.Info, gl.level, "LogMode must not mutate the receiver")
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithOperation(context.Background(), "bulk")

	t.Run("query at info level", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Info)
		gl.Trace(ctx, time.Now(), sqlFn(`SELECT "id" FROM "products"`, 2), nil)

		require.Equal(t, 1, logs.Len())
		e := logs.All()[0]
		assert.Equal(t, "SQL Query", e.Message)
		assert.Equal(t, zapcore.DebugLevel, e.Level)
		assert.Equal(t, "gorm", e.LoggerName)
		assert.Equal(t, "bulk", e.ContextMap()["operation"])
		assert.Equal(t, int64(2), e.ContextMap()["rows"])
	})

	t.Run("errors", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Warn)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), errors.New("relation does not exist"))
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SQL Error", logs.All()[0].Message)
	})

	t.Run("slow query", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
		gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)", 1), nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Contains(t, logs.All()[0].Message, "SLOW SQL")
	})

	t.Run("silent", func(t *testing.T) {
		log, logs := observed()
		gl := NewGormLogger(log, gormlogger.Silent)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), errors.New("x"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_Messages(t *testing.T) {
	log, logs := observed()
	gl := NewGormLogger(log, gormlogger.Warn)

	gl.Info(context.Background(), "info %d", 1)
	gl.Warn(context.Background(), "warn %s", "x")
	gl.Error(context.Background(), "error %v", true)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warn x", logs.All()[0].Message)
	assert.Equal(t, "error true", logs.All()[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
