package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/pkg/errors"
)

func (r *ratingRepository) Exists(ctx context.Context, sessionID, patientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings
			WHERE session_id = $1 AND patient_id = $2
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, sessionID, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to check rating: %w", err)
	}
	return exists, nil
}

// CreateWithRollup inserts the rating and folds it into the doctor's running
// mean inside one transaction. The unique index on (session_id, patient_id)
// makes a concurrent double-submit lose cleanly instead of double-counting.
func (r *ratingRepository) CreateWithRollup(ctx context.Context, rating *model.Rating) (*model.DoctorRatingRollup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (
			id, session_id, appointment_id, doctor_id, patient_id,
			stars, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rating.ID,
		rating.SessionID,
		rating.AppointmentID,
		rating.DoctorID,
		rating.PatientID,
		rating.Stars,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, errors.AlreadyRated()
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	var rollup model.DoctorRatingRollup
	err = tx.GetContext(ctx, &rollup, `
		INSERT INTO doctor_rating_rollups (doctor_id, rating_count, average_rating)
		VALUES ($1, 1, $2)
		ON CONFLICT (doctor_id) DO UPDATE
		SET rating_count = doctor_rating_rollups.rating_count + 1,
			average_rating = (doctor_rating_rollups.average_rating * doctor_rating_rollups.rating_count + $2)
				/ (doctor_rating_rollups.rating_count + 1)
		RETURNING doctor_id, rating_count, average_rating
	`, rating.DoctorID, float64(rating.Stars))
	if err != nil {
		return nil, fmt.Errorf("failed to fold rating rollup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}
	return &rollup, nil
}

func (r *ratingRepository) GetRollup(ctx context.Context, doctorID uuid.UUID) (*model.DoctorRatingRollup, error) {
	query := `
		SELECT doctor_id, rating_count, average_rating
		FROM doctor_rating_rollups
		WHERE doctor_id = $1
	`
	var rollup model.DoctorRatingRollup
	err := r.db.GetContext(ctx, &rollup, query, doctorID)
	if err == sql.ErrNoRows {
		return &model.DoctorRatingRollup{DoctorID: doctorID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating rollup: %w", err)
	}
	return &rollup, nil
}
