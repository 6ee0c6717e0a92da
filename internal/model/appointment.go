package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is defined.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// PaymentStatus is written by the external payment processor; this service
// only ever reads it, except for the cancel cascade.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Appointment ties a patient, a doctor and one schedule slot together.
// SlotDate and TimeOfDay are kept as entered; StartsAt resolves them against
// the configured clinic timezone.
type Appointment struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	PatientID     uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	SlotDate      string            `db:"slot_date" json:"date"`
	TimeOfDay     string            `db:"time_of_day" json:"time_of_day"`
	Complaint     string            `db:"complaint" json:"complaint"`
	ContactEmail  string            `db:"contact_email" json:"contact_email,omitempty"`
	Status        AppointmentStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status" json:"payment_status"`
	Price         int64             `db:"price" json:"price"`
	CancelReason  *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// StartsAt returns the appointment's start instant in the given location.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return CombineDateTime(a.SlotDate, a.TimeOfDay, loc)
}

type BookAppointmentRequest struct {
	DoctorID     uuid.UUID `json:"doctor_id" binding:"required"`
	Date         string    `json:"date" binding:"required,calendardate"`
	TimeOfDay    string    `json:"time_of_day" binding:"required,timeofday"`
	Complaint    string    `json:"complaint" binding:"required,max=1000"`
	ContactEmail string    `json:"contact_email" binding:"omitempty,email"`
	Price        int64     `json:"price" binding:"omitempty,gte=0"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentUpdateRequest is posted by the payment processor callback, the sole
// external writer of payment status.
type PaymentUpdateRequest struct {
	Status PaymentStatus `json:"status" binding:"required,oneof=pending completed cancelled"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
}
