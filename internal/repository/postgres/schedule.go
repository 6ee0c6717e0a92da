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

func (r *scheduleRepository) CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error {
	query := `
		INSERT INTO schedule_slots (
			id, doctor_id, slot_date, time_of_day, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.SlotDate,
		slot.TimeOfDay,
		slot.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.DuplicateSlot(slot.SlotDate, slot.TimeOfDay)
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *scheduleRepository) DeleteSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error) {
	query := `
		DELETE FROM schedule_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND time_of_day = $3
	`
	result, err := r.db.ExecContext(ctx, query, doctorID, date, timeOfDay)
	if err != nil {
		return false, fmt.Errorf("failed to delete slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *scheduleRepository) SlotExists(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_slots
			WHERE doctor_id = $1 AND slot_date = $2 AND time_of_day = $3
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, doctorID, date, timeOfDay)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func (r *scheduleRepository) ListSlotsForMonth(ctx context.Context, doctorID uuid.UUID, monthPrefix string) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, time_of_day, created_at
		FROM schedule_slots
		WHERE doctor_id = $1
		AND slot_date LIKE $2 || '-%'
		ORDER BY slot_date ASC, time_of_day ASC
	`
	var slots []*model.ScheduleSlot
	err := r.db.SelectContext(ctx, &slots, query, doctorID, monthPrefix)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
