package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRegisterDBTracing(t *testing.T) {
	rec := installRecorder(t)

	db, err := gorm.Open(sqlite.Open("file:dbtracing?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBName: "sqlite"}, zap.NewNop()))

	ctx, span := StartSpan(context.Background(), "test", "query")
	var n int
	require.NoError(t, db.WithContext(ctx).Raw("SELECT 1").Scan(&n).Error)
	span.End()

	assert.Equal(t, 1, n)
	assert.GreaterOrEqual(t, len(rec.Ended()), 2)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:dbtracing_off?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
}
