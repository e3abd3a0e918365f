package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/response"
)

// ReportHandler serves attendance reports. Admins see every course;
// instructors are scoped to their own.
type ReportHandler struct {
	reports service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates the ReportHandler.
func NewReportHandler(reports service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) buildReport(c *gin.Context) (*dto.ReportResponse, bool) {
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return nil, false
	}

	instructorID := ""
	if !isAdmin(c) {
		instructorID = currentUserID(c)
	}

	report, err := h.reports.Report(c.Request.Context(), &req, instructorID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			response.BadRequest(c, 24001, "invalid date range")
			return nil, false
		}
		response.InternalError(c)
		return nil, false
	}
	return report, true
}

// Get handles GET /api/v1/reports.
func (h *ReportHandler) Get(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	response.OK(c, report)
}

// Export handles GET /api/v1/reports/export?kind=raw|grouped|rates.
func (h *ReportHandler) Export(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}

	data, filename, err := h.reports.BuildCSV(report, c.DefaultQuery("kind", service.ExportRaw))
	if err != nil {
		if errors.Is(err, service.ErrUnknownCSVKind) {
			response.BadRequest(c, 24002, "unknown export kind")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
