package schedule

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/middleware"
	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/service/schedule"
	"github.com/docline/consult-api/pkg/auth"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/httputil"
)

type Handler struct {
	service *schedule.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *schedule.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors/:doctorID")
	{
		doctors.GET("/slots", h.ListSlots)

		// Only the owning doctor mutates their schedule.
		mutate := doctors.Group("", h.auth.RequireRole(auth.RoleDoctor))
		mutate.POST("/slots", h.AddSlot)
		mutate.DELETE("/slots", h.RemoveSlot)
	}
}

func (h *Handler) AddSlot(c *gin.Context) {
	doctorID, ok := h.ownDoctorID(c)
	if !ok {
		return
	}

	var req model.AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	slot, err := h.service.AddSlot(c.Request.Context(), doctorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, slot)
}

func (h *Handler) RemoveSlot(c *gin.Context) {
	doctorID, ok := h.ownDoctorID(c)
	if !ok {
		return
	}

	var req model.RemoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	if err := h.service.RemoveSlot(c.Request.Context(), doctorID, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}

func (h *Handler) ListSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid doctor ID", err))
		return
	}

	month := c.Query("month")
	if month == "" {
		httputil.RespondWithError(c, errors.BadRequest("month query parameter is required", nil))
		return
	}

	days, err := h.service.ListMonth(c.Request.Context(), doctorID, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, days)
}

// ownDoctorID resolves the path doctor id and rejects mutations on someone
// else's schedule.
func (h *Handler) ownDoctorID(c *gin.Context) (uuid.UUID, bool) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid doctor ID", err))
		return uuid.Nil, false
	}
	if middleware.UserID(c) != doctorID {
		httputil.RespondWithError(c, errors.Forbidden("cannot modify another doctor's schedule"))
		return uuid.Nil, false
	}
	return doctorID, true
}
