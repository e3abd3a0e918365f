package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/response"
)

// CourseHandler serves course CRUD and instructor assignments.
type CourseHandler struct {
	courses service.CourseService
	logger  *zap.Logger
}

// NewCourseHandler creates the CourseHandler.
func NewCourseHandler(courses service.CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, logger: logger}
}

// Create handles POST /api/v1/courses.
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	course, err := h.courses.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCourseCodeExists) {
			response.Conflict(c, 21001, "course code already exists")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, course)
}

// Get handles GET /api/v1/courses/:id.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 21002, "course not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, course)
}

// List handles GET /api/v1/courses.
func (h *CourseHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	courses, total, err := h.courses.List(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, courses, total, page.GetPage(), page.GetPageSize())
}

// Update handles PATCH /api/v1/courses/:id.
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 21002, "course not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, course)
}

// Assign handles POST /api/v1/courses/:id/instructors.
func (h *CourseHandler) Assign(c *gin.Context) {
	var req dto.AssignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	err := h.courses.Assign(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.NotFound(c, 21002, "course not found")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20002, "user not found")
		case errors.Is(err, service.ErrNotInstructor):
			response.BadRequest(c, 21003, "user is not an instructor")
		case errors.Is(err, service.ErrAlreadyAssigned):
			response.Conflict(c, 21004, "instructor already assigned")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, nil)
}

// Unassign handles DELETE /api/v1/courses/:id/instructors/:user_id.
func (h *CourseHandler) Unassign(c *gin.Context) {
	err := h.courses.Unassign(c.Request.Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			response.NotFound(c, 21005, "assignment not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Mine handles GET /api/v1/courses/mine: the caller's assigned courses.
func (h *CourseHandler) Mine(c *gin.Context) {
	courses, err := h.courses.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, courses)
}
