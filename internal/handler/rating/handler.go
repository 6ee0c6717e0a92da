package rating

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/middleware"
	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/service/rating"
	"github.com/docline/consult-api/pkg/auth"
	"github.com/docline/consult-api/pkg/errors"
	"github.com/docline/consult-api/pkg/httputil"
)

type Handler struct {
	service *rating.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *rating.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/ratings", h.auth.RequireRole(auth.RolePatient), h.Submit)
	r.GET("/doctors/:doctorID/rating", h.Rollup)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	submitted, err := h.service.Submit(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, submitted)
}

func (h *Handler) Rollup(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid doctor ID", err))
		return
	}

	rollup, err := h.service.Rollup(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, rollup)
}
