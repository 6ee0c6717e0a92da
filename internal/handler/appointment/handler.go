package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/middleware"
	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/service/appointment"
	"github.com/docline/consult-api/pkg/auth"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *appointment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.auth.RequireRole(auth.RolePatient), h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/confirm", h.auth.RequireRole(auth.RoleDoctor), h.Confirm)
		appointments.POST("/:id/complete", h.auth.RequireRole(auth.RoleDoctor), h.Complete)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/payment", h.auth.RequireRole(auth.RolePayment), h.UpdatePayment)
	}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

// List shows the caller's own appointments: the doctor's ledger for
// doctors, the patient's bookings for patients.
func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status: model.AppointmentStatus(c.Query("status")),
	}
	switch middleware.Role(c) {
	case auth.RoleDoctor:
		filters.DoctorID = middleware.UserID(c)
	default:
		filters.PatientID = middleware.UserID(c)
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Confirm(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	confirmed, err := h.service.Confirm(c.Request.Context(), apt.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, confirmed)
}

func (h *Handler) Complete(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	completed, err := h.service.Complete(c.Request.Context(), apt.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, completed)
}

func (h *Handler) Cancel(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), apt.ID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, cancelled)
}

// UpdatePayment is the payment processor's callback, the only writer of
// payment status.
func (h *Handler) UpdatePayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.PaymentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.UpdatePayment(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

// ownAppointment loads the appointment and checks the caller is one of its
// two parties.
func (h *Handler) ownAppointment(c *gin.Context) (*model.Appointment, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return nil, false
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}

	userID := middleware.UserID(c)
	if apt.PatientID != userID && apt.DoctorID != userID {
		httputil.RespondWithError(c, errors.Forbidden("appointment belongs to another user"))
		return nil, false
	}
	return apt, true
}
