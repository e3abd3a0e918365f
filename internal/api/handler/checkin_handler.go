package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/response"
)

// CheckInHandler serves the public student-facing endpoints. Nothing
// here requires authentication; the token is the capability.
type CheckInHandler struct {
	checkins service.CheckInService
	logger   *zap.Logger
}

// NewCheckInHandler creates the CheckInHandler.
func NewCheckInHandler(checkins service.CheckInService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{checkins: checkins, logger: logger}
}

// Preview handles GET /api/v1/checkin/:token.
func (h *CheckInHandler) Preview(c *gin.Context) {
	preview, err := h.checkins.SessionPreview(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownSession) {
			response.NotFound(c, 23001, "unknown session")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, preview)
}

// Submit handles POST /api/v1/checkin.
func (h *CheckInHandler) Submit(c *gin.Context) {
	var req dto.SubmitCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	record, err := h.checkins.Submit(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSession):
			response.NotFound(c, 23001, "unknown session")
		case errors.Is(err, service.ErrSessionClosed):
			response.Conflict(c, 23002, "session is closed")
		case errors.Is(err, service.ErrSessionExpired):
			response.Conflict(c, 23003, "session has expired")
		case errors.Is(err, service.ErrDomainNotAllowed):
			response.BadRequest(c, 23004, "email domain not allowed")
		default:
			response.InternalError(c)
		}
		return
	}
	if record.Duplicate {
		response.OK(c, record)
		return
	}
	response.Created(c, record)
}
