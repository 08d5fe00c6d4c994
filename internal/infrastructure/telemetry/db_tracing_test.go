package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("disabled is a no-op", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
		_, registered := db.Config.Plugins["otelgorm"]
		assert.False(t, registered)
	})

	t.Run("enabled installs otelgorm once", func(t *testing.T) {
		cfg := DBTracingConfig{Enabled: true, DBSystem: "sqlite"}
		require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
		_, registered := db.Config.Plugins["otelgorm"]
		assert.True(t, registered)

		assert.ErrorIs(t, RegisterDBTracing(db, cfg, zap.NewNop()), gorm.ErrRegistered)

		var n int
		require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
		assert.Equal(t, 1, n)
	})
}
