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

func newObservedSQLLogger(t *testing.T, zapLevel zapcore.Level, gormLevel gormlogger.LogLevel) (*SQLLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapLevel)
	return NewSQLLogger(zap.New(core), gormLevel), recorded
}

func selectAccounts() (string, int64) {
	return `SELECT * FROM "accounts" WHERE tenant_id = $1`, 3
}

func TestSQLLogger_LogMode(t *testing.T) {
	l, _ := newObservedSQLLogger(t, zapcore.InfoLevel, gormlogger.Info)

	mode := l.LogMode(gormlogger.Warn)

	clone, ok := mode.(*SQLLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, clone.level)
	assert.Equal(t, gormlogger.Info, l.level)
}

func TestSQLLogger_Messages(t *testing.T) {
	t.Run("info passes through at info level", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.InfoLevel, gormlogger.Info)
		l.Info(context.Background(), "migrated %d tables", 7)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "migrated 7 tables")
	})

	t.Run("silent level suppresses everything", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.DebugLevel, gormlogger.Silent)
		l.Info(context.Background(), "hidden")
		l.Trace(context.Background(), time.Now(), selectAccounts, nil)

		assert.Empty(t, recorded.All())
	})
}

func TestSQLLogger_Trace(t *testing.T) {
	t.Run("failed query logs the error", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.ErrorLevel, gormlogger.Error)
		l.Trace(context.Background(), time.Now(), selectAccounts, errors.New("connection reset"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "query failed", logs[0].Message)
	})

	t.Run("record not found is suppressed by default", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.ErrorLevel, gormlogger.Error)
		l.Trace(context.Background(), time.Now(), selectAccounts, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("KeepNotFound reports record not found", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.ErrorLevel, gormlogger.Error)
		l.KeepNotFound()
		l.Trace(context.Background(), time.Now(), selectAccounts, gormlogger.ErrRecordNotFound)

		assert.Len(t, recorded.All(), 1)
	})

	t.Run("slow queries warn past the threshold", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.WarnLevel, gormlogger.Warn)
		l.SlowAfter(time.Nanosecond)
		l.Trace(context.Background(), time.Now().Add(-time.Second), selectAccounts, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "slow query", logs[0].Message)
	})

	t.Run("normal queries log at debug", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.DebugLevel, gormlogger.Info)
		l.Trace(context.Background(), time.Now(), selectAccounts, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "query", logs[0].Message)
		assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	})

	t.Run("context identity lands in the fields", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(t, zapcore.DebugLevel, gormlogger.Info)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
		ctx = context.WithValue(ctx, TenantIDKey, "acme")

		l.Trace(ctx, time.Now(), selectAccounts, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		got := map[string]string{}
		for _, f := range logs[0].Context {
			if f.Key == "request_id" || f.Key == "tenant_id" {
				got[f.Key] = f.String
			}
		}
		assert.Equal(t, "req-42", got["request_id"])
		assert.Equal(t, "acme", got["tenant_id"])
	})
}

func TestGormLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GormLevel(tt.name))
		})
	}
}

func TestSQLLoggerImplementsInterface(t *testing.T) {
	l, _ := newObservedSQLLogger(t, zapcore.InfoLevel, gormlogger.Info)
	var _ gormlogger.Interface = l
}
