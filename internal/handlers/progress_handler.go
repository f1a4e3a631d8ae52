package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// ExportProgress downloads the progress workbook
// @Summary Export progress
// @Description Excel workbook with Users, Archived Tasks, Notifications, Courses and Submissions sheets
// @Tags progress
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param main_course_id query string false "Restrict submissions to a course"
// @Param date_from query string false "Submissions ending after (RFC3339 or YYYY-MM-DD)"
// @Param date_to query string false "Submissions ending before (RFC3339 or YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /progress/export [get]
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting progress workbook")

	data, err := h.progressService.ExportWorkbook(c.Request.Context(), identity, parseSubmissionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("learning-progress-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
