package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), recorded
}

var loanQuery = func() (string, int64) {
	return "SELECT * FROM loans WHERE status = 'active'", 3
}

func TestGormLoggerLogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)

	clone := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	cloned, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.logLevel)
}

func TestGormLoggerLevelGates(t *testing.T) {
	t.Run("info logs at info level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Info)
		gormLog.Info(context.Background(), "migrating %s", "loans")

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "migrating loans")
	})

	t.Run("silent suppresses everything", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Silent)
		gormLog.Info(context.Background(), "migrating")
		gormLog.Warn(context.Background(), "lock wait")
		gormLog.Error(context.Background(), "constraint violated")
		gormLog.Trace(context.Background(), time.Now(), loanQuery, nil)

		assert.Empty(t, recorded.All())
	})
}

func TestGormLoggerTrace(t *testing.T) {
	t.Run("query errors log at error level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Error)
		gormLog.Trace(context.Background(), time.Now(), loanQuery, errors.New("connection reset"))

		entries := recorded.FilterMessage("SQL Error").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap()["sql"], "FROM loans")
	})

	t.Run("record not found is not logged", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Error)
		gormLog.Trace(context.Background(), time.Now(), loanQuery, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow statements log at warn level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Warn)

		begin := time.Now().Add(-time.Second)
		gormLog.Trace(context.Background(), begin, loanQuery, nil)

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "SLOW SQL")
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("fast statements log at debug level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Info)
		gormLog.Trace(context.Background(), time.Now(), loanQuery, nil)

		entries := recorded.FilterMessage("SQL Query").All()
		require.Len(t, entries, 1)
		assert.EqualValues(t, 3, entries[0].ContextMap()["rows"])
	})

	t.Run("request id from context is carried into the entry", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-sweep-7")
		gormLog.Trace(ctx, time.Now(), loanQuery, nil)

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-sweep-7", entries[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
