package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.Nil(t, p.TracerProvider())
	assert.Nil(t, p.LogCore())
	assert.NotNil(t, p.Meter("treasury"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased")
	var _ sdktrace.Sampler = Sampler(0.5)
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	l := zap.New(core).With(zap.String("k", "v"))

	l.Info("dropped")
	l.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
}

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(ProfilerConfig{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestStartProfiler_RequiresAddress(t *testing.T) {
	_, err := StartProfiler(ProfilerConfig{Enabled: true}, nil, zap.NewNop())
	assert.Error(t, err)
}
