package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ipd-admission-engine/backend/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 48, cfg.Allocation.BedTurnoverHours)
	assert.Equal(t, 10, cfg.Allocation.AutoAllocateBatch)
	assert.Equal(t, 5, cfg.Allocation.NotifySignificantPosition)
	assert.Equal(t, 24, cfg.Allocation.NotifyThrottleHours)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BED_TURNOVER_HOURS", "36")
	t.Setenv("AUTO_ALLOCATE_BATCH", "25")
	t.Setenv("DB_NAME", "admissions_test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 36, cfg.Allocation.BedTurnoverHours)
	assert.Equal(t, 25, cfg.Allocation.AutoAllocateBatch)
	assert.Contains(t, cfg.Database.DatabaseDSN(), "dbname=admissions_test")
}
