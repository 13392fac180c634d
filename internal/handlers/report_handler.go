package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// ListResults
// @Summary List ranked results of a quiz
// @Tags reports
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {array} services.ResultRow
// @Router /quizzes/{id}/results [get]
func (h *ReportHandler) ListResults(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	rows, err := h.reportService.ListResults(c.Request.Context(), id, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// QuizAnalytics
// @Summary Score statistics of a quiz
// @Tags reports
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizAnalytics
// @Router /quizzes/{id}/analytics [get]
func (h *ReportHandler) QuizAnalytics(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	analytics, err := h.reportService.QuizAnalytics(c.Request.Context(), id, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// DepartmentReport
// @Summary Completed attempts per department
// @Tags reports
// @Produce json
// @Success 200 {array} services.DepartmentSummary
// @Router /reports/departments [get]
func (h *ReportHandler) DepartmentReport(c *gin.Context) {
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	report, err := h.reportService.DepartmentReport(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportResults
// @Summary Download results as xlsx
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Quiz ID"
// @Router /quizzes/{id}/results/export [get]
func (h *ReportHandler) ExportResults(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", id)

	file, err := h.reportService.ExportResults(c.Request.Context(), id, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
