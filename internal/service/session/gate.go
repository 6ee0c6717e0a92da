package session

import (
	"fmt"
	"math"
	"time"

	"github.com/docline/consult-api/internal/model"
)

// Derive computes the gate state for a consultation at one instant. This is
// the single authority over whether messaging is open: every dashboard view
// and every mutating call goes through it, and nothing stores the result.
// Client-side countdown timers are only a rendering hint; a client that
// sleeps through its timer still gets the correct answer here.
func Derive(now time.Time, paymentStatus model.PaymentStatus, startsAt time.Time) model.SessionState {
	switch {
	case paymentStatus != model.PaymentStatusCompleted:
		return model.SessionUnpaid
	case now.Before(startsAt):
		return model.SessionNotStarted
	case !now.After(startsAt.Add(model.SessionWindow)):
		return model.SessionActive
	default:
		return model.SessionExpired
	}
}

// Countdown renders the human-readable remainder for a derived state.
func Countdown(now time.Time, state model.SessionState, startsAt time.Time) string {
	switch state {
	case model.SessionUnpaid:
		return "awaiting payment"
	case model.SessionNotStarted:
		until := int(startsAt.Sub(now).Minutes())
		return fmt.Sprintf("starts in %dh %dm", until/60, until%60)
	case model.SessionActive:
		left := startsAt.Add(model.SessionWindow).Sub(now)
		return fmt.Sprintf("%d minutes left", int(math.Ceil(left.Minutes())))
	default:
		return "session ended"
	}
}
