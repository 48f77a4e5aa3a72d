package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newCaptureLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoderConfig := zapcore.EncoderConfig{
		MessageKey: "msg",
		LevelKey:   "level",
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	return zap.New(core), &buf
}

func TestWithContext_FromContext(t *testing.T) {
	t.Run("round-trips the logger", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("returns a no-op logger when absent", func(t *testing.T) {
		got := FromContext(context.Background())
		require.NotNil(t, got)
		// must not panic
		got.Info("ignored")
	})
}

func TestContextEnrichment(t *testing.T) {
	t.Run("request ID lands in context and logger", func(t *testing.T) {
		ctx, enriched := WithRequestID(context.Background(), zap.NewNop(), "req-123")
		assert.Equal(t, "req-123", GetRequestID(ctx))
		assert.NotNil(t, enriched)
	})

	t.Run("tenant ID lands in context and logger", func(t *testing.T) {
		ctx, _ := WithTenantID(context.Background(), zap.NewNop(), "tenant-abc")
		assert.Equal(t, "tenant-abc", GetTenantID(ctx))
	})

	t.Run("actor lands in context and logger", func(t *testing.T) {
		ctx, _ := WithActor(context.Background(), zap.NewNop(), "alice@example.com")
		assert.Equal(t, "alice@example.com", GetActor(ctx))
	})

	t.Run("getters return empty for bare context", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetRequestID(ctx))
		assert.Empty(t, GetTenantID(ctx))
		assert.Empty(t, GetActor(ctx))
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("injects context fields into entries", func(t *testing.T) {
		base, buf := newCaptureLogger()
		ctx := context.WithValue(context.Background(), TenantIDKey, "tenant-abc")
		ctx = context.WithValue(ctx, ActorKey, "alice@example.com")

		WithLogger(ctx, base).Info("document approved")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "document approved", entry["msg"])
		assert.Equal(t, "tenant-abc", entry["tenant_id"])
		assert.Equal(t, "alice@example.com", entry["actor"])
	})

	t.Run("With chains additional fields", func(t *testing.T) {
		base, buf := newCaptureLogger()
		cl := WithLogger(context.Background(), base).
			With(zap.String("entry_number", "JE-2026-000001")).
			With(zap.String("document", "INV-2026-00001"))

		cl.Info("entry posted")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "JE-2026-000001", entry["entry_number"])
		assert.Equal(t, "INV-2026-00001", entry["document"])
	})

	t.Run("nil logger degrades to no-op", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		// must not panic
		cl.Info("ignored")
		cl.Error("ignored")
	})

	t.Run("Zap returns the enriched logger", func(t *testing.T) {
		base, buf := newCaptureLogger()
		ctx, _ := WithRequestID(context.Background(), base, "req-9")
		ctx = WithContext(ctx, base)

		WithLogger(ctx, base).Zap().Warn("slow query")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-9", entry["request_id"])
	})
}
