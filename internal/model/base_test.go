package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineDateTime(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	got, err := CombineDateTime("2026-03-10", "14:30", moscow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 30, 0, 0, moscow), got)

	// the same wall-clock pair is a different instant in a different zone
	utc, err := CombineDateTime("2026-03-10", "14:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, utc.Sub(got))
}

func TestCombineDateTimeRejectsBadInput(t *testing.T) {
	_, err := CombineDateTime("10.03.2026", "14:30", time.UTC)
	assert.Error(t, err)

	_, err = CombineDateTime("2026-03-10", "2pm", time.UTC)
	assert.Error(t, err)
}

func TestAppointmentStatusTerminal(t *testing.T) {
	assert.False(t, AppointmentStatusPending.Terminal())
	assert.False(t, AppointmentStatusConfirmed.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
}
