package notification

import (
	"context"
	"fmt"

	"github.com/docline/consult-api/internal/email"
	"github.com/docline/consult-api/internal/model"
)

// Service sends booking notices to the contact email captured at booking.
// It never blocks or fails a lifecycle transition; callers log and move on.
type Service interface {
	AppointmentUpdate(ctx context.Context, apt *model.Appointment, kind string) error
}

type service struct {
	email email.Sender
}

func NewService(sender email.Sender) Service {
	return &service{email: sender}
}

func (s *service) AppointmentUpdate(ctx context.Context, apt *model.Appointment, kind string) error {
	subject, body := composeAppointmentUpdate(apt, kind)
	return s.email.Send(ctx, apt.ContactEmail, subject, body)
}

func composeAppointmentUpdate(apt *model.Appointment, kind string) (string, string) {
	when := fmt.Sprintf("%s at %s", apt.SlotDate, apt.TimeOfDay)

	switch kind {
	case model.EventAppointmentConfirmed:
		return "Your consultation is confirmed",
			fmt.Sprintf("Your consultation on %s has been confirmed by the doctor. The chat opens at the scheduled time once payment is completed.", when)
	case model.EventAppointmentCancelled:
		reason := ""
		if apt.CancelReason != nil {
			reason = fmt.Sprintf(" Reason: %s.", *apt.CancelReason)
		}
		return "Your consultation was cancelled",
			fmt.Sprintf("Your consultation on %s has been cancelled.%s", when, reason)
	default:
		return "Consultation update",
			fmt.Sprintf("Your consultation on %s was updated.", when)
	}
}

// NopService discards notifications; used when SMTP is not configured.
type NopService struct{}

func (NopService) AppointmentUpdate(ctx context.Context, apt *model.Appointment, kind string) error {
	return nil
}
