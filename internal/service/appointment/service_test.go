package appointment

import (
	"context"
	"database/sql"
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
	sessions     map[uuid.UUID]model.ChatSessionStatus
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: map[uuid.UUID]*model.Appointment{},
		sessions:     map[uuid.UUID]model.ChatSessionStatus{},
	}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
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
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != uuid.Nil && apt.DoctorID != filters.DoctorID {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
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
	apt, ok := f.appointments[id]
	if !ok {
		return errors.NotFound("appointment", nil)
	}
	apt.PaymentStatus = status
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
	if _, ok := f.sessions[id]; ok {
		f.sessions[id] = model.ChatSessionCancelled
	}
	return nil
}

type fakeScheduleRepo struct {
	offered map[string]bool
}

func (f *fakeScheduleRepo) CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error {
	f.offered[slot.DoctorID.String()+slot.SlotDate+slot.TimeOfDay] = true
	return nil
}

func (f *fakeScheduleRepo) DeleteSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error) {
	return false, nil
}

func (f *fakeScheduleRepo) SlotExists(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error) {
	return f.offered[doctorID.String()+date+timeOfDay], nil
}

func (f *fakeScheduleRepo) ListSlotsForMonth(ctx context.Context, doctorID uuid.UUID, monthPrefix string) ([]*model.ScheduleSlot, error) {
	return nil, nil
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

type captureNotifier struct {
	kinds []string
}

func (c *captureNotifier) AppointmentUpdate(ctx context.Context, apt *model.Appointment, kind string) error {
	c.kinds = append(c.kinds, kind)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	schedule *fakeScheduleRepo
	outbox   *fakeOutboxRepo
	notifier *captureNotifier
	doctorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeAppointmentRepo()
	schedule := &fakeScheduleRepo{offered: map[string]bool{}}
	outbox := &fakeOutboxRepo{}
	notifier := &captureNotifier{}
	doctorID := uuid.New()

	require.NoError(t, schedule.CreateSlot(context.Background(), &model.ScheduleSlot{
		DoctorID:  doctorID,
		SlotDate:  "2026-04-01",
		TimeOfDay: "10:00",
	}))

	svc := NewService(repo, schedule, event.NewService(outbox, logger.NewLogger(nil)), notifier, logger.NewLogger(nil))
	return &fixture{svc: svc, repo: repo, schedule: schedule, outbox: outbox, notifier: notifier, doctorID: doctorID}
}

func (f *fixture) book(t *testing.T) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
		DoctorID:     f.doctorID,
		Date:         "2026-04-01",
		TimeOfDay:    "10:00",
		Complaint:    "persistent cough",
		ContactEmail: "patient@example.com",
	})
	require.NoError(t, err)
	return apt
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	apt := f.book(t)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, model.PaymentStatusPending, apt.PaymentStatus)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventAppointmentBooked, f.outbox.events[0].EventType)
}

func TestBookUnofferedSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), uuid.New(), &model.BookAppointmentRequest{
		DoctorID:  f.doctorID,
		Date:      "2026-04-01",
		TimeOfDay: "23:00",
		Complaint: "anything",
	})
	assert.Equal(t, errors.ErrSlotUnavailable, errors.Code(err))
}

func TestBookSameSlotTwice(t *testing.T) {
	// Slots are offerings, not reservations. Two patients can book the
	// same slot and the doctor confirms whichever one they take.
	f := newFixture(t)

	first := f.book(t)
	second := f.book(t)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	confirmed, err := f.svc.Confirm(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)
	assert.Contains(t, f.notifier.kinds, model.EventAppointmentConfirmed)
}

func TestConfirmTwice(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.Confirm(context.Background(), apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), apt.ID)
	assert.Equal(t, errors.ErrInvalidTransition, errors.Code(err))
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.Complete(context.Background(), apt.ID)
	assert.Equal(t, errors.ErrInvalidTransition, errors.Code(err))

	_, err = f.svc.Confirm(context.Background(), apt.ID)
	require.NoError(t, err)

	completed, err := f.svc.Complete(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
}

func TestCancelCascades(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)
	f.repo.sessions[apt.ID] = model.ChatSessionActive

	cancelled, err := f.svc.Cancel(context.Background(), apt.ID, "patient request")
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, model.PaymentStatusCancelled, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "patient request", *cancelled.CancelReason)
	assert.Equal(t, model.ChatSessionCancelled, f.repo.sessions[apt.ID])
	assert.Contains(t, f.notifier.kinds, model.EventAppointmentCancelled)
}

func TestCancelTerminalAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.Cancel(context.Background(), apt.ID, "first")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), apt.ID, "second")
	assert.Equal(t, errors.ErrInvalidTransition, errors.Code(err))
}

func TestUpdatePaymentCompleted(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	updated, err := f.svc.UpdatePayment(context.Background(), apt.ID, model.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, updated.PaymentStatus)
	assert.Equal(t, model.AppointmentStatusPending, updated.Status)
}

func TestUpdatePaymentCancelledCancelsBooking(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	updated, err := f.svc.UpdatePayment(context.Background(), apt.ID, model.PaymentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)
	assert.Equal(t, model.PaymentStatusCancelled, updated.PaymentStatus)
	require.NotNil(t, updated.CancelReason)
	assert.Equal(t, "payment cancelled", *updated.CancelReason)
}
