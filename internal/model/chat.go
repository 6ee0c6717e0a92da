package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionWindow is how long messaging stays open once the appointment time
// is reached.
const SessionWindow = 30 * time.Minute

// MaxImageBytes caps the decoded size of an image attachment.
const MaxImageBytes = 2 << 20

// SessionState is the derived gate status of a consultation session. It is
// never persisted: it is recomputed from the wall clock, the appointment's
// payment status and its start time on every read, so that the patient's and
// the doctor's clients always agree without sharing a timer.
type SessionState string

const (
	SessionUnpaid     SessionState = "unpaid"
	SessionNotStarted SessionState = "not_started"
	SessionActive     SessionState = "active"
	SessionExpired    SessionState = "expired"
)

// ChatSessionStatus is the stored convenience flag on a session row. It only
// records whether any message has ever been sent (active) and whether the
// linked appointment was cancelled; it is not the gate.
type ChatSessionStatus string

const (
	ChatSessionPending   ChatSessionStatus = "pending"
	ChatSessionActive    ChatSessionStatus = "active"
	ChatSessionCancelled ChatSessionStatus = "cancelled"
)

// ChatSession is created lazily, at most once per appointment, the first
// time either party sends a message on a confirmed appointment.
type ChatSession struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	AppointmentID uuid.UUID         `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Status        ChatSessionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// SenderRole distinguishes the two parties on a session.
type SenderRole string

const (
	SenderRoleDoctor  SenderRole = "doctor"
	SenderRolePatient SenderRole = "patient"
)

// ChatMessage is immutable once appended. Reads order by SentAt rather than
// insertion order, to tolerate out-of-order delivery from either client.
type ChatMessage struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	SessionID uuid.UUID   `db:"session_id" json:"session_id"`
	SenderID  uuid.UUID   `db:"sender_id" json:"sender_id"`
	Role      SenderRole  `db:"sender_role" json:"sender_role"`
	Type      MessageType `db:"message_type" json:"type"`
	Content   string      `db:"content" json:"content,omitempty"`
	ImageData []byte      `db:"image_data" json:"image,omitempty"`
	ImageMIME string      `db:"image_mime" json:"image_mime,omitempty"`
	SentAt    time.Time   `db:"sent_at" json:"sent_at"`
}

// SendMessageRequest carries either text content or a base64 image payload.
type SendMessageRequest struct {
	Type    MessageType `json:"type" binding:"required,oneof=text image"`
	Content string      `json:"content" binding:"omitempty,max=4000"`
	Image   string      `json:"image,omitempty"`
}

// SessionStatusResponse is the gate read: the derived state plus the
// human-readable countdown the dashboards render.
type SessionStatusResponse struct {
	AppointmentID uuid.UUID    `json:"appointment_id"`
	State         SessionState `json:"state"`
	TimeRemaining string       `json:"time_remaining"`
}
