package eventlog

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{
		"id":     "bk_20260815T093000Z_9f3a2c1b",
		"status": "completed",
	}

	event, err := NewEvent("bk_20260815T093000Z_9f3a2c1b", TypeBackupCompleted, payload)
	require.NoError(t, err)

	assert.Equal(t, "bk_20260815T093000Z_9f3a2c1b", event.BackupID)
	assert.Equal(t, TypeBackupCompleted, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(event.Payload), &got))
	assert.Equal(t, "completed", got["status"])
}

func TestNewEventRejectsUnserializable(t *testing.T) {
	_, err := NewEvent("bk_x", TypeBackupFailed, map[string]any{"ch": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal")
}

func TestEventTableName(t *testing.T) {
	assert.Equal(t, "dr_events", Event{}.TableName())
}
