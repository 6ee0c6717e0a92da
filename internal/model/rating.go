package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxRatingComment caps the free-text comment on a rating.
const MaxRatingComment = 200

// Rating is a patient's one-time feedback for an expired session.
type Rating struct {
	ID            uuid.UUID `db:"id" json:"id"`
	SessionID     uuid.UUID `db:"session_id" json:"session_id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Stars         int       `db:"stars" json:"stars"`
	Comment       string    `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DoctorRatingRollup is derived state: the running mean over a doctor's
// ratings, folded forward on each submission. It is recomputed incrementally
// and is not independently authoritative.
type DoctorRatingRollup struct {
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	RatingCount   int64     `db:"rating_count" json:"rating_count"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
}

type SubmitRatingRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	Stars     int       `json:"stars" binding:"required"`
	Comment   string    `json:"comment" binding:"max=200"`
}

// RatingPromptResponse tells a client whether to offer the rating dialog.
// Declining is not recorded, so the prompt may be offered again later.
type RatingPromptResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Rated     bool      `json:"rated"`
}
