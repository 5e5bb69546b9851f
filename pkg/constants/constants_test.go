package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrequency(t *testing.T) {
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	f, ok := ParseFrequency("3_months")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), f.Next(from))
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), FrequencyYear.Next(from))

	_, ok = ParseFrequency("2_weeks")
	assert.False(t, ok)
}

func TestIsOpenMaintenance(t *testing.T) {
	assert.True(t, IsOpenMaintenance(MaintenancePending))
	assert.True(t, IsOpenMaintenance(MaintenanceAwaitingApproval))
	assert.False(t, IsOpenMaintenance(MaintenanceClosed))
	assert.False(t, IsOpenMaintenance(MaintenanceCancelled))
}
