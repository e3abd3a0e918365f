package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/response"
)

// ImportHandler serves the roster upload endpoint.
type ImportHandler struct {
	imports service.ImportService
	logger  *zap.Logger
}

// NewImportHandler creates the ImportHandler.
func NewImportHandler(imports service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, logger: logger}
}

// Upload handles POST /api/v1/import/courses. The multipart "file" field
// holds a CSV or XLSX roster, chosen by extension.
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "missing upload file")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 25001, "cannot read upload file")
		return
	}
	defer f.Close()

	var rows []service.ImportRow
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		rows, err = h.imports.ParseCSV(f)
	case ".xlsx":
		rows, err = h.imports.ParseXLSX(f)
	default:
		response.BadRequest(c, 25002, "unsupported file type, expected .csv or .xlsx")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportNoData):
			response.BadRequest(c, 25003, "file has no data rows")
		case errors.Is(err, service.ErrImportTooManyRows):
			response.BadRequest(c, 25004, "file exceeds the row limit")
		case errors.Is(err, service.ErrImportBadHeader):
			response.BadRequest(c, 25005, "file is missing required columns")
		default:
			response.BadRequest(c, 25001, "cannot parse upload file")
		}
		return
	}

	result, err := h.imports.Import(c.Request.Context(), rows)
	if err != nil {
		h.logger.Error("import failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
