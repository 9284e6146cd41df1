package sysinfo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootTime(t *testing.T) {
	boot, err := BootTime()
	require.NoError(t, err)

	assert.True(t, boot.Before(time.Now()), "host booted in the past")
	assert.True(t, boot.After(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSnapshot(t *testing.T) {
	now := time.Now()
	h, err := Snapshot(now)
	require.NoError(t, err)

	assert.False(t, h.BootTime.IsZero())
	assert.NotEmpty(t, h.Uptime)
	assert.Greater(t, h.MemoryTotalGB, 0.0)
	assert.LessOrEqual(t, h.MemoryUsedGB, h.MemoryTotalGB)
	assert.GreaterOrEqual(t, h.MemoryPercent, 0.0)
	assert.LessOrEqual(t, h.MemoryPercent, 100.0)

	t.Logf("host: boot=%s uptime=%s mem=%.2f/%.2f GB", h.BootTime, h.Uptime, h.MemoryUsedGB, h.MemoryTotalGB)
}
