package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
)

// All repository interfaces in one file
type (
	// ScheduleRepository owns a doctor's per-date slot offerings.
	ScheduleRepository interface {
		CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error
		DeleteSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error)
		SlotExists(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error)
		ListSlotsForMonth(ctx context.Context, doctorID uuid.UUID, monthPrefix string) ([]*model.ScheduleSlot, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// UpdateStatusFrom moves status from one value to another in a single
		// compare-and-set; it reports false when the row was not in `from`.
		UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (bool, error)
		UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
		// CancelWithSession cancels the appointment, its payment record and,
		// when one exists, its chat session in a single transaction.
		CancelWithSession(ctx context.Context, id uuid.UUID, reason *string) error
	}

	ChatRepository interface {
		GetSession(ctx context.Context, id uuid.UUID) (*model.ChatSession, error)
		GetSessionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.ChatSession, error)
		// CreateSession inserts the session unless one already exists for the
		// appointment, and returns the surviving row either way.
		CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error)
		UpdateSessionStatus(ctx context.Context, id uuid.UUID, status model.ChatSessionStatus) error
		CreateMessage(ctx context.Context, message *model.ChatMessage) error
		ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error)
	}

	RatingRepository interface {
		Exists(ctx context.Context, sessionID, patientID uuid.UUID) (bool, error)
		// CreateWithRollup inserts the rating and folds it into the doctor's
		// rollup in one transaction, returning the updated rollup.
		CreateWithRollup(ctx context.Context, rating *model.Rating) (*model.DoctorRatingRollup, error)
		GetRollup(ctx context.Context, doctorID uuid.UUID) (*model.DoctorRatingRollup, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
