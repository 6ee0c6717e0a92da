package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/repository"
	"github.com/docline/consult-api/internal/service/event"
	"github.com/docline/consult-api/pkg/errors"
)

// Service is the consultation session gate. Session state is derived on
// every call from the appointment and the wall clock; the stored session row
// only holds the message log and the convenience flag.
type Service struct {
	chatRepo        repository.ChatRepository
	appointmentRepo repository.AppointmentRepository
	events          *event.Service
	location        *time.Location
	now             func() time.Time
}

func NewService(chatRepo repository.ChatRepository, appointmentRepo repository.AppointmentRepository, events *event.Service, location *time.Location) *Service {
	return &Service{
		chatRepo:        chatRepo,
		appointmentRepo: appointmentRepo,
		events:          events,
		location:        location,
		now:             time.Now,
	}
}

// Status derives the current gate state and countdown for an appointment.
// Pure read, no side effects.
func (s *Service) Status(ctx context.Context, appointmentID uuid.UUID) (*model.SessionStatusResponse, error) {
	apt, err := s.appointmentRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	startsAt, err := apt.StartsAt(s.location)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment time: %w", err)
	}

	now := s.now()
	state := Derive(now, apt.PaymentStatus, startsAt)
	return &model.SessionStatusResponse{
		AppointmentID: apt.ID,
		State:         state,
		TimeRemaining: Countdown(now, state, startsAt),
	}, nil
}

// AppendMessage writes one message to the appointment's session. The gate is
// re-derived here, at the moment of the write: a stale client whose expiry
// timer never fired is rejected all the same. The session row is created
// lazily on the first send, and only for a confirmed appointment.
func (s *Service) AppendMessage(ctx context.Context, appointmentID, senderID uuid.UUID, role model.SenderRole, req *model.SendMessageRequest) (*model.ChatMessage, error) {
	apt, err := s.appointmentRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusConfirmed {
		return nil, errors.AppointmentNotConfirmed()
	}

	startsAt, err := apt.StartsAt(s.location)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment time: %w", err)
	}

	if state := Derive(s.now(), apt.PaymentStatus, startsAt); state != model.SessionActive {
		return nil, errors.SessionNotActive(string(state))
	}

	msg, err := buildMessage(senderID, role, req)
	if err != nil {
		return nil, err
	}

	session, err := s.chatRepo.GetSessionByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session, err = s.chatRepo.CreateSession(ctx, &model.ChatSession{
			AppointmentID: apt.ID,
			PatientID:     apt.PatientID,
			DoctorID:      apt.DoctorID,
			Status:        model.ChatSessionPending,
		})
		if err != nil {
			return nil, err
		}
	}

	msg.SessionID = session.ID
	msg.SentAt = s.now()

	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if session.Status == model.ChatSessionPending {
		if err := s.chatRepo.UpdateSessionStatus(ctx, session.ID, model.ChatSessionActive); err != nil {
			return nil, err
		}
	}

	s.events.Record(ctx, model.EventMessageAppended, apt.ID, map[string]interface{}{
		"message_id": msg.ID,
		"session_id": session.ID,
		"sender_id":  msg.SenderID,
		"type":       msg.Type,
		"sent_at":    msg.SentAt,
	})

	return msg, nil
}

// ListMessages returns the session's log ordered by send time. An
// appointment whose session was never created reads as an empty log.
func (s *Service) ListMessages(ctx context.Context, appointmentID uuid.UUID) ([]*model.ChatMessage, error) {
	session, err := s.chatRepo.GetSessionByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []*model.ChatMessage{}, nil
	}
	return s.chatRepo.ListMessages(ctx, session.ID)
}

// Session exposes the stored session row, used by the rating flow to locate
// the session id for an appointment.
func (s *Service) Session(ctx context.Context, appointmentID uuid.UUID) (*model.ChatSession, error) {
	return s.chatRepo.GetSessionByAppointment(ctx, appointmentID)
}

func buildMessage(senderID uuid.UUID, role model.SenderRole, req *model.SendMessageRequest) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		SenderID: senderID,
		Role:     role,
		Type:     req.Type,
	}

	switch req.Type {
	case model.MessageTypeText:
		if strings.TrimSpace(req.Content) == "" {
			return nil, errors.BadRequest("text message requires content", nil)
		}
		msg.Content = req.Content

	case model.MessageTypeImage:
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, errors.BadRequest("image payload is not valid base64", err)
		}
		if int64(len(data)) > model.MaxImageBytes {
			return nil, errors.ImageTooLarge(int64(len(data)), model.MaxImageBytes)
		}
		mime := http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			return nil, errors.InvalidImageType(mime)
		}
		msg.ImageData = data
		msg.ImageMIME = mime
		msg.Content = req.Content

	default:
		return nil, errors.BadRequest("unknown message type", nil)
	}

	return msg, nil
}
