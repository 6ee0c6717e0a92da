package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/repository"
	"github.com/docline/consult-api/internal/service/event"
	"github.com/docline/consult-api/internal/service/notification"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/logger"
)

// Service owns the booking lifecycle: pending → {confirmed, cancelled},
// confirmed → {completed, cancelled}, with completed and cancelled terminal.
// Payment status is only ever consumed here; the payment processor writes it
// through UpdatePayment.
type Service struct {
	repo         repository.AppointmentRepository
	scheduleRepo repository.ScheduleRepository
	events       *event.Service
	notifier     notification.Service
	logger       *logger.Logger
}

func NewService(repo repository.AppointmentRepository, scheduleRepo repository.ScheduleRepository, events *event.Service, notifier notification.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		scheduleRepo: scheduleRepo,
		events:       events,
		notifier:     notifier,
		logger:       logger,
	}
}

// Book creates a pending appointment against a currently offered slot.
// Nothing reserves the slot exclusively: two patients can book the same
// slot, and the doctor resolves the conflict by confirming one of them.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	offered, err := s.scheduleRepo.SlotExists(ctx, req.DoctorID, req.Date, req.TimeOfDay)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, errors.SlotUnavailable(req.Date, req.TimeOfDay)
	}

	apt := &model.Appointment{
		PatientID:     patientID,
		DoctorID:      req.DoctorID,
		SlotDate:      req.Date,
		TimeOfDay:     req.TimeOfDay,
		Complaint:     req.Complaint,
		ContactEmail:  req.ContactEmail,
		Status:        model.AppointmentStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Price:         req.Price,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.events.Record(ctx, model.EventAppointmentBooked, apt.ID, apt)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// Confirm moves pending → confirmed. The compare-and-set in the repository
// makes the transition first-writer-wins under concurrency.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	moved, err := s.repo.UpdateStatusFrom(ctx, id, model.AppointmentStatusPending, model.AppointmentStatusConfirmed)
	if err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, errors.InvalidTransition(string(apt.Status), string(model.AppointmentStatusConfirmed))
	}

	s.notify(ctx, apt, model.EventAppointmentConfirmed)
	s.events.Record(ctx, model.EventAppointmentConfirmed, apt.ID, apt)
	return apt, nil
}

// Complete moves confirmed → completed; afterwards the session gate derives
// from payment and clock alone, with no further lifecycle activity.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	moved, err := s.repo.UpdateStatusFrom(ctx, id, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted)
	if err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, errors.InvalidTransition(string(apt.Status), string(model.AppointmentStatusCompleted))
	}

	s.events.Record(ctx, model.EventAppointmentCompleted, apt.ID, apt)
	return apt, nil
}

// Cancel is the one multi-record transition: appointment status, payment
// status and the chat session flag change in a single transaction, so the
// ledger and the gate can never disagree.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}

	if err := s.repo.CancelWithSession(ctx, id, cancelReason); err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, apt, model.EventAppointmentCancelled)
	s.events.Record(ctx, model.EventAppointmentCancelled, apt.ID, apt)
	return apt, nil
}

// UpdatePayment applies the payment processor's verdict. A cancelled payment
// cancels the booking as well, through the same atomic cascade.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Appointment, error) {
	if status == model.PaymentStatusCancelled {
		return s.Cancel(ctx, id, "payment cancelled")
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, model.EventPaymentUpdated, apt.ID, apt)
	return apt, nil
}

func (s *Service) notify(ctx context.Context, apt *model.Appointment, kind string) {
	if apt.ContactEmail == "" {
		return
	}
	if err := s.notifier.AppointmentUpdate(ctx, apt, kind); err != nil {
		s.logger.Error(err, "failed to send appointment notification",
			"appointment_id", apt.ID.String(), "event", kind)
	}
}
