package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

func TestLoggerProvider_Disabled(t *testing.T) {
	base := zap.NewNop()
	for _, cfg := range []config.TelemetryConfig{
		{Enabled: false, LogsEnabled: true},
		{Enabled: true, LogsEnabled: false},
	} {
		lp, err := NewLoggerProvider(context.Background(), cfg, base)
		require.NoError(t, err)
		assert.False(t, lp.Enabled())
		assert.Same(t, base, lp.Bridge(base, "marketplace", zapcore.InfoLevel))
		assert.NoError(t, lp.Shutdown(context.Background()))
	}
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("component", "test"))

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[1].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}
