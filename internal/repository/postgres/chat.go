package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
)

func (r *chatRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.ChatSession, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, status,
			   created_at, updated_at
		FROM chat_sessions
		WHERE id = $1
	`
	var session model.ChatSession
	err := r.db.GetContext(ctx, &session, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

func (r *chatRepository) GetSessionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.ChatSession, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, status,
			   created_at, updated_at
		FROM chat_sessions
		WHERE appointment_id = $1
	`
	var session model.ChatSession
	err := r.db.GetContext(ctx, &session, query, appointmentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

// CreateSession relies on the unique index on appointment_id: concurrent
// lazy creations from the two clients collapse into one row, and whichever
// insert lost reads the winner back.
func (r *chatRepository) CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (
			id, appointment_id, patient_id, doctor_id, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (appointment_id) DO NOTHING
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.AppointmentID,
		session.PatientID,
		session.DoctorID,
		session.Status,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.GetSessionByAppointment(ctx, session.AppointmentID)
	}
	return session, nil
}

func (r *chatRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status model.ChatSessionStatus) error {
	query := `
		UPDATE chat_sessions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update chat session status: %w", err)
	}
	return nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (
			id, session_id, sender_id, sender_role, message_type,
			content, image_data, image_mime, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	message.ID = uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.SessionID,
		message.SenderID,
		message.Role,
		message.Type,
		message.Content,
		message.ImageData,
		message.ImageMIME,
		message.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, session_id, sender_id, sender_role, message_type,
			   content, image_data, image_mime, sent_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY sent_at ASC, id ASC
	`
	var messages []*model.ChatMessage
	err := r.db.SelectContext(ctx, &messages, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
