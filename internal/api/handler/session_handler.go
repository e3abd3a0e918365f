package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/qr"
	"github.com/gfragi/attendance-app/pkg/response"
)

// SessionHandler serves the instructor-facing session lifecycle.
type SessionHandler struct {
	sessions service.SessionService
	logger   *zap.Logger
}

// NewSessionHandler creates the SessionHandler.
func NewSessionHandler(sessions service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Open handles POST /api/v1/sessions.
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.NotFound(c, 21002, "course not found")
		case errors.Is(err, service.ErrNotAuthorized):
			response.Forbidden(c, 22001, "not assigned to this course")
		case errors.Is(err, service.ErrInvalidDuration):
			response.BadRequest(c, 22002, "invalid session duration")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, session)
}

// Get handles GET /api/v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.GetByID(c.Request.Context(), c.Param("id"), instructorScope(c))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.OK(c, session)
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(c *gin.Context) {
	var req dto.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), &req, instructorScope(c))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.OK(c, sessions)
}

// Close handles POST /api/v1/sessions/:id/close.
func (h *SessionHandler) Close(c *gin.Context) {
	session, err := h.sessions.Close(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.OK(c, session)
}

// Extend handles POST /api/v1/sessions/:id/extend.
func (h *SessionHandler) Extend(c *gin.Context) {
	var req dto.ExtendSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	session, err := h.sessions.Extend(c.Request.Context(), c.Param("id"), &req, currentUserID(c))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}
	response.OK(c, session)
}

// QR handles GET /api/v1/sessions/:id/qr: the check-in link as a PNG.
func (h *SessionHandler) QR(c *gin.Context) {
	session, err := h.sessions.GetByID(c.Request.Context(), c.Param("id"), instructorScope(c))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	png, err := qr.PNG(session.CheckInURL, size)
	if err != nil {
		h.logger.Error("render qr failed", zap.String("session_id", session.ID), zap.Error(err))
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *SessionHandler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 22003, "session not found")
	case errors.Is(err, service.ErrNotAuthorized):
		response.Forbidden(c, 22001, "not assigned to this course")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 22002, "invalid session duration")
	case errors.Is(err, service.ErrSessionNotOpen):
		response.Conflict(c, 22004, "session is closed")
	case errors.Is(err, service.ErrSessionExpired):
		response.Conflict(c, 22005, "session has expired")
	default:
		response.InternalError(c)
	}
}
