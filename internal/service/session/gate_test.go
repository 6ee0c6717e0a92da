package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docline/consult-api/internal/model"
)

func TestDerive(t *testing.T) {
	startsAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		payment model.PaymentStatus
		want    model.SessionState
	}{
		{
			name:    "unpaid before start",
			now:     startsAt.Add(-time.Hour),
			payment: model.PaymentStatusPending,
			want:    model.SessionUnpaid,
		},
		{
			name:    "unpaid wins even inside the window",
			now:     startsAt.Add(10 * time.Minute),
			payment: model.PaymentStatusPending,
			want:    model.SessionUnpaid,
		},
		{
			name:    "cancelled payment reads as unpaid",
			now:     startsAt.Add(10 * time.Minute),
			payment: model.PaymentStatusCancelled,
			want:    model.SessionUnpaid,
		},
		{
			name:    "paid before start",
			now:     startsAt.Add(-time.Minute),
			payment: model.PaymentStatusCompleted,
			want:    model.SessionNotStarted,
		},
		{
			name:    "active exactly at start",
			now:     startsAt,
			payment: model.PaymentStatusCompleted,
			want:    model.SessionActive,
		},
		{
			name:    "active inside the window",
			now:     startsAt.Add(29 * time.Minute),
			payment: model.PaymentStatusCompleted,
			want:    model.SessionActive,
		},
		{
			name:    "active at the closing boundary",
			now:     startsAt.Add(model.SessionWindow),
			payment: model.PaymentStatusCompleted,
			want:    model.SessionActive,
		},
		{
			name:    "expired one second past the window",
			now:     startsAt.Add(model.SessionWindow + time.Second),
			payment: model.PaymentStatusCompleted,
			want:    model.SessionExpired,
		},
		{
			name:    "expired long after",
			now:     startsAt.Add(48 * time.Hour),
			payment: model.PaymentStatusCompleted,
			want:    model.SessionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.now, tt.payment, startsAt))
		})
	}
}

func TestCountdown(t *testing.T) {
	startsAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		now   time.Time
		state model.SessionState
		want  string
	}{
		{
			name:  "awaiting payment",
			now:   startsAt.Add(-time.Hour),
			state: model.SessionUnpaid,
			want:  "awaiting payment",
		},
		{
			name:  "hours and minutes until start",
			now:   startsAt.Add(-90 * time.Minute),
			state: model.SessionNotStarted,
			want:  "starts in 1h 30m",
		},
		{
			name:  "minutes left mid-session",
			now:   startsAt.Add(10 * time.Minute),
			state: model.SessionActive,
			want:  "20 minutes left",
		},
		{
			name:  "partial minute rounds up",
			now:   startsAt.Add(29*time.Minute + 30*time.Second),
			state: model.SessionActive,
			want:  "1 minutes left",
		},
		{
			name:  "ended",
			now:   startsAt.Add(2 * time.Hour),
			state: model.SessionExpired,
			want:  "session ended",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Countdown(tt.now, tt.state, startsAt))
		})
	}
}
