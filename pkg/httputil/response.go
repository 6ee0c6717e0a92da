package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docline/consult-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for a newly created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response with the HTTP status mapped from
// the application error code
func RespondWithError(c *gin.Context, err error) {
	code := errors.Code(err)
	message := "internal server error"
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}

	c.JSON(statusFor(code), Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound, errors.ErrSlotNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest, errors.ErrInvalidStars, errors.ErrInvalidImageType:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrDuplicateSlot, errors.ErrAlreadyRated, errors.ErrInvalidTransition,
		errors.ErrSlotUnavailable, errors.ErrSessionNotActive,
		errors.ErrAppointmentNotConfirmed, errors.ErrAppointmentNotExpired:
		return http.StatusConflict
	case errors.ErrImageTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
