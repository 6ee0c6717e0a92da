package session

import (
	"context"
	"database/sql"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/service/event"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/logger"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, apt *model.Appointment) error {
	f.appointments[apt.ID] = apt
	return nil
}

func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (bool, error) {
	apt, ok := f.appointments[id]
	if !ok || apt.Status != from {
		return false, nil
	}
	apt.Status = to
	return true, nil
}

func (f *fakeAppointmentRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	f.appointments[id].PaymentStatus = status
	return nil
}

func (f *fakeAppointmentRepo) CancelWithSession(ctx context.Context, id uuid.UUID, reason *string) error {
	apt, ok := f.appointments[id]
	if !ok {
		return errors.NotFound("appointment", nil)
	}
	if apt.Status.Terminal() {
		return errors.InvalidTransition(string(apt.Status), string(model.AppointmentStatusCancelled))
	}
	apt.Status = model.AppointmentStatusCancelled
	apt.PaymentStatus = model.PaymentStatusCancelled
	apt.CancelReason = reason
	return nil
}

type fakeChatRepo struct {
	sessions map[uuid.UUID]*model.ChatSession
	messages []*model.ChatMessage
}

func (f *fakeChatRepo) GetSession(ctx context.Context, id uuid.UUID) (*model.ChatSession, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeChatRepo) GetSessionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.ChatSession, error) {
	return f.sessions[appointmentID], nil
}

func (f *fakeChatRepo) CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error) {
	if existing, ok := f.sessions[session.AppointmentID]; ok {
		return existing, nil
	}
	session.ID = uuid.New()
	f.sessions[session.AppointmentID] = session
	return session, nil
}

func (f *fakeChatRepo) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status model.ChatSessionStatus) error {
	for _, s := range f.sessions {
		if s.ID == id {
			s.Status = status
		}
	}
	return nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	message.ID = uuid.New()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type sessionFixture struct {
	svc          *Service
	appointments *fakeAppointmentRepo
	chat         *fakeChatRepo
	outbox       *fakeOutboxRepo
	apt          *model.Appointment
	startsAt     time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	apt := &model.Appointment{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		SlotDate:      "2026-03-10",
		TimeOfDay:     "14:00",
		Status:        model.AppointmentStatusConfirmed,
		PaymentStatus: model.PaymentStatusCompleted,
	}

	appointments := &fakeAppointmentRepo{appointments: map[uuid.UUID]*model.Appointment{apt.ID: apt}}
	chat := &fakeChatRepo{sessions: map[uuid.UUID]*model.ChatSession{}}
	outbox := &fakeOutboxRepo{}

	svc := NewService(chat, appointments, event.NewService(outbox, logger.NewLogger(nil)), time.UTC)

	startsAt, err := apt.StartsAt(time.UTC)
	require.NoError(t, err)

	return &sessionFixture{
		svc:          svc,
		appointments: appointments,
		chat:         chat,
		outbox:       outbox,
		apt:          apt,
		startsAt:     startsAt,
	}
}

func (f *sessionFixture) at(offset time.Duration) {
	now := f.startsAt.Add(offset)
	f.svc.now = func() time.Time { return now }
}

func TestAppendMessageInsideWindow(t *testing.T) {
	f := newSessionFixture(t)
	f.at(5 * time.Minute)

	msg, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "hello doctor",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello doctor", msg.Content)
	assert.NotEqual(t, uuid.Nil, msg.SessionID)

	// first send created and activated the session
	session := f.chat.sessions[f.apt.ID]
	require.NotNil(t, session)
	assert.Equal(t, model.ChatSessionActive, session.Status)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventMessageAppended, f.outbox.events[0].EventType)
}

func TestAppendMessageBeforePayment(t *testing.T) {
	f := newSessionFixture(t)
	f.apt.PaymentStatus = model.PaymentStatusPending
	f.at(5 * time.Minute)

	_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "hello",
	})
	assert.Equal(t, errors.ErrSessionNotActive, errors.Code(err))
	assert.Empty(t, f.chat.messages)
}

func TestAppendMessageBeforeStart(t *testing.T) {
	f := newSessionFixture(t)
	f.at(-time.Minute)

	_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "too early",
	})
	assert.Equal(t, errors.ErrSessionNotActive, errors.Code(err))
}

func TestAppendMessageAfterWindow(t *testing.T) {
	f := newSessionFixture(t)
	f.at(5 * time.Minute)

	sent, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "in time",
	})
	require.NoError(t, err)

	f.at(model.SessionWindow + time.Minute)

	_, err = f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "too late",
	})
	assert.Equal(t, errors.ErrSessionNotActive, errors.Code(err))

	// the log stays readable after the window closes
	msgs, err := f.svc.ListMessages(context.Background(), f.apt.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, sent.ID, msgs[0].ID)
}

func TestAppendMessageUnconfirmedAppointment(t *testing.T) {
	f := newSessionFixture(t)
	f.apt.Status = model.AppointmentStatusPending
	f.at(5 * time.Minute)

	_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "hello",
	})
	assert.Equal(t, errors.ErrAppointmentNotConfirmed, errors.Code(err))
}

func TestAppendMessageBlankText(t *testing.T) {
	f := newSessionFixture(t)
	f.at(5 * time.Minute)

	_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "   ",
	})
	assert.Equal(t, errors.ErrBadRequest, errors.Code(err))
}

func TestAppendMessageImageValidation(t *testing.T) {
	f := newSessionFixture(t)
	f.at(5 * time.Minute)

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
			Type:  model.MessageTypeImage,
			Image: "not-base64!!!",
		})
		assert.Equal(t, errors.ErrBadRequest, errors.Code(err))
	})

	t.Run("rejects oversized image", func(t *testing.T) {
		big := make([]byte, model.MaxImageBytes+1)
		_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
			Type:  model.MessageTypeImage,
			Image: base64.StdEncoding.EncodeToString(big),
		})
		assert.Equal(t, errors.ErrImageTooLarge, errors.Code(err))
	})

	t.Run("rejects non-image payload", func(t *testing.T) {
		_, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
			Type:  model.MessageTypeImage,
			Image: base64.StdEncoding.EncodeToString([]byte("plain text payload, long enough to sniff")),
		})
		assert.Equal(t, errors.ErrInvalidImageType, errors.Code(err))
	})

	t.Run("accepts a png", func(t *testing.T) {
		png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)
		msg, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
			Type:  model.MessageTypeImage,
			Image: base64.StdEncoding.EncodeToString(png),
		})
		require.NoError(t, err)
		assert.Equal(t, "image/png", msg.ImageMIME)
	})
}

func TestAppendMessageReusesSession(t *testing.T) {
	f := newSessionFixture(t)
	f.at(5 * time.Minute)

	first, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.PatientID, model.SenderRolePatient, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "first",
	})
	require.NoError(t, err)

	second, err := f.svc.AppendMessage(context.Background(), f.apt.ID, f.apt.DoctorID, model.SenderRoleDoctor, &model.SendMessageRequest{
		Type:    model.MessageTypeText,
		Content: "second",
	})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, f.chat.sessions, 1)
}

func TestStatusDerivation(t *testing.T) {
	f := newSessionFixture(t)

	f.at(-2 * time.Hour)
	status, err := f.svc.Status(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionNotStarted, status.State)
	assert.Equal(t, "starts in 2h 0m", status.TimeRemaining)

	f.at(10 * time.Minute)
	status, err = f.svc.Status(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, status.State)
	assert.Equal(t, "20 minutes left", status.TimeRemaining)

	f.at(time.Hour)
	status, err = f.svc.Status(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionExpired, status.State)
}

func TestListMessagesWithoutSession(t *testing.T) {
	f := newSessionFixture(t)

	msgs, err := f.svc.ListMessages(context.Background(), f.apt.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
