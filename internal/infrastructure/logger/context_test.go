package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// spanContext builds a context carrying a valid remote span
func spanContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContextMissing(t *testing.T) {
	logger := FromContext(context.Background())

	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info("settlement posted")
	})
}

func TestFromContextWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")

	assert.NotNil(t, FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-42")
	enriched.Info("loan contracted")

	assert.Equal(t, "req-42", GetRequestID(ctx))
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-42", recorded.All()[0].ContextMap()["request_id"])
}

func TestWithRequestIDOverrides(t *testing.T) {
	logger := zap.NewNop()

	ctx, _ := WithRequestID(context.Background(), logger, "first")
	ctx, _ = WithRequestID(ctx, logger, "second")

	assert.Equal(t, "second", GetRequestID(ctx))
}

func TestGetRequestIDMissing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestWithTraceContext(t *testing.T) {
	t.Run("adds trace fields from an active span", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		logger := WithTraceContext(spanContext(t), zap.New(core))

		logger.Info("payment registered")

		require.Equal(t, 1, recorded.Len())
		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})

	t.Run("returns the logger unchanged without a span", func(t *testing.T) {
		logger := zap.NewNop()
		assert.Equal(t, logger, WithTraceContext(context.Background(), logger))
	})
}

func TestGetTraceID(t *testing.T) {
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(spanContext(t)))
	assert.Empty(t, GetTraceID(context.Background()))
}
