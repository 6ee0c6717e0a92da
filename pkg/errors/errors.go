package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrInternal
)

// Consultation error codes. Each rejected operation maps to exactly one of
// these, so clients can branch on the code instead of the message text.
const (
	ErrDuplicateSlot ErrorCode = iota + 2000
	ErrSlotNotFound
	ErrSlotUnavailable
	ErrInvalidTransition
	ErrAppointmentNotConfirmed
	ErrSessionNotActive
	ErrAppointmentNotExpired
	ErrAlreadyRated
	ErrInvalidStars
	ErrImageTooLarge
	ErrInvalidImageType
)

// Code extracts the ErrorCode from err, or ErrInternal for unknown errors.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Consultation error constructors

func DuplicateSlot(date, timeOfDay string) *AppError {
	return &AppError{
		Code:    ErrDuplicateSlot,
		Message: fmt.Sprintf("slot %s %s already exists", date, timeOfDay),
	}
}

func SlotNotFound(date, timeOfDay string) *AppError {
	return &AppError{
		Code:    ErrSlotNotFound,
		Message: fmt.Sprintf("slot %s %s not found", date, timeOfDay),
	}
}

func SlotUnavailable(date, timeOfDay string) *AppError {
	return &AppError{
		Code:    ErrSlotUnavailable,
		Message: fmt.Sprintf("slot %s %s is not offered", date, timeOfDay),
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot move appointment from %s to %s", from, to),
	}
}

func AppointmentNotConfirmed() *AppError {
	return &AppError{
		Code:    ErrAppointmentNotConfirmed,
		Message: "appointment is not confirmed",
	}
}

func SessionNotActive(state string) *AppError {
	return &AppError{
		Code:    ErrSessionNotActive,
		Message: fmt.Sprintf("cannot send message, session is %s", state),
	}
}

func AppointmentNotExpired() *AppError {
	return &AppError{
		Code:    ErrAppointmentNotExpired,
		Message: "session has not ended yet",
	}
}

func AlreadyRated() *AppError {
	return &AppError{
		Code:    ErrAlreadyRated,
		Message: "session has already been rated",
	}
}

func InvalidStars(stars int) *AppError {
	return &AppError{
		Code:    ErrInvalidStars,
		Message: fmt.Sprintf("stars must be between 1 and 5, got %d", stars),
	}
}

func ImageTooLarge(size int64, limit int64) *AppError {
	return &AppError{
		Code:    ErrImageTooLarge,
		Message: fmt.Sprintf("image of %d bytes exceeds the %d byte limit", size, limit),
	}
}

func InvalidImageType(mime string) *AppError {
	return &AppError{
		Code:    ErrInvalidImageType,
		Message: fmt.Sprintf("unsupported attachment type %q", mime),
	}
}
