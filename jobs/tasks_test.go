package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLowStockScanTask(t *testing.T) {
	at := time.Date(2024, 6, 13, 2, 0, 0, 0, time.UTC)
	task, err := NewLowStockScanTask(at)
	require.NoError(t, err)
	assert.Equal(t, TaskStockLowScan, task.Type())

	var payload LowStockScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.True(t, at.Equal(payload.ScheduledFor))
}

func TestNewSalesFrequencyTask(t *testing.T) {
	task, err := NewSalesFrequencyTask(30)
	require.NoError(t, err)
	assert.Equal(t, TaskSalesFrequency, task.Type())

	var payload SalesFrequencyPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 30, payload.WindowDays)
}
