package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/middleware"
	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/service/appointment"
	"github.com/docline/consult-api/internal/service/rating"
	"github.com/docline/consult-api/internal/service/session"
	"github.com/docline/consult-api/pkg/auth"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/httputil"
	"github.com/docline/consult-api/pkg/metrics"
)

type Handler struct {
	sessions     *session.Service
	appointments *appointment.Service
	ratings      *rating.Service
	metrics      *metrics.Metrics
}

func NewHandler(sessions *session.Service, appointments *appointment.Service, ratings *rating.Service, metrics *metrics.Metrics) *Handler {
	return &Handler{
		sessions:     sessions,
		appointments: appointments,
		ratings:      ratings,
		metrics:      metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions/:appointmentID")
	{
		sessions.GET("/status", h.Status)
		sessions.GET("/messages", h.ListMessages)
		sessions.POST("/messages", h.SendMessage)
		sessions.GET("/rating", h.RatingPrompt)
	}
}

// Status serves the derived gate state. Clients may poll it or schedule a
// UI refresh around TimeRemaining, but every send is re-checked server-side
// regardless of what any client timer believes.
func (h *Handler) Status(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	status, err := h.sessions.Status(c.Request.Context(), apt.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.SessionStates.WithLabelValues(string(status.State)).Inc()
	httputil.RespondWithSuccess(c, status)
}

func (h *Handler) SendMessage(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	role := model.SenderRolePatient
	if middleware.Role(c) == auth.RoleDoctor {
		role = model.SenderRoleDoctor
	}

	msg, err := h.sessions.AppendMessage(c.Request.Context(), apt.ID, middleware.UserID(c), role, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.MessagesAppended.WithLabelValues(string(msg.Type)).Inc()
	httputil.RespondWithCreated(c, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	messages, err := h.sessions.ListMessages(c.Request.Context(), apt.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, messages)
}

// RatingPrompt tells the patient's client whether to offer the one-time
// rating dialog for an ended session.
func (h *Handler) RatingPrompt(c *gin.Context) {
	apt, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	chatSession, err := h.sessions.Session(c.Request.Context(), apt.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if chatSession == nil {
		httputil.RespondWithError(c, errors.NotFound("session", nil))
		return
	}

	rated, err := h.ratings.IsRated(c.Request.Context(), chatSession.ID, middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, model.RatingPromptResponse{
		SessionID: chatSession.ID,
		Rated:     rated,
	})
}

func (h *Handler) ownAppointment(c *gin.Context) (*model.Appointment, bool) {
	id, err := uuid.Parse(c.Param("appointmentID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return nil, false
	}

	apt, err := h.appointments.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}

	userID := middleware.UserID(c)
	if apt.PatientID != userID && apt.DoctorID != userID {
		httputil.RespondWithError(c, errors.Forbidden("session belongs to another user"))
		return nil, false
	}
	return apt, true
}
