package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scanlink/backend/internal/api/middleware"
	"scanlink/backend/internal/service"
	"scanlink/backend/pkg/response"
)

// ExportHandler serves class participation downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates the ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Participation streams the class participation report as a file
// attachment. CSV by default; ?format=xlsx switches to a workbook.
// GET /teacher/classes/:id/participation
func (h *ExportHandler) Participation(c *gin.Context) {
	teacherID := c.GetString(middleware.ContextAccountID)
	classID := c.Param("id")

	var (
		buf         *bytes.Buffer
		filename    string
		contentType string
		err         error
	)

	switch c.Query("format") {
	case "", "csv":
		contentType = "text/csv; charset=utf-8"
		buf, filename, err = h.exportSvc.ParticipationCSV(c.Request.Context(), teacherID, classID)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		buf, filename, err = h.exportSvc.ParticipationXLSX(c.Request.Context(), teacherID, classID)
	default:
		response.BadRequest(c, 10001, "format must be csv or xlsx")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			response.NotFound(c, 24001, "class not found")
		case errors.Is(err, service.ErrClassForbidden):
			response.Forbidden(c, 10003, "class belongs to another teacher")
		case errors.Is(err, service.ErrExportNoRows):
			response.NotFound(c, 24002, "class has no students")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
