package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// RecordAnswerRequest is the body of PUT /attempts/:id/answers/:question_id.
// A null selected_option_id clears the selection.
type RecordAnswerRequest struct {
	SelectedOptionID *uint `json:"selected_option_id"`
}

// StartOrResume starts a new attempt or returns the caller's open one
// @Summary Start or resume attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.AttemptSession "resumed"
// @Success 201 {object} services.AttemptSession "started"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id}/attempts [post]
func (h *AttemptHandler) StartOrResume(c *gin.Context) {
	quizID := parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "quiz_id", quizID)

	session, err := h.attemptService.StartOrResume(c.Request.Context(), quizID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if session.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, session)
}

// RecordAnswer saves the caller's selection for one question
// @Summary Record answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param question_id path uint true "Question ID"
// @Param answer body RecordAnswerRequest true "Selected option"
// @Success 200 {object} services.AnswerReceipt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers/{question_id} [put]
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	attemptID := parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	questionID := parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	receipt, err := h.attemptService.Record(c.Request.Context(), attemptID, questionID, req.SelectedOptionID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// Finish seals the attempt and returns the score
// @Summary Finish attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptSummary
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/finish [post]
func (h *AttemptHandler) Finish(c *gin.Context) {
	attemptID := parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	h.LogRequest(c, "Finishing quiz attempt", "attempt_id", attemptID)

	summary, err := h.attemptService.Finish(c.Request.Context(), attemptID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetResult returns the per-question breakdown of an attempt
// @Summary Get attempt result
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResult
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *AttemptHandler) GetResult(c *gin.Context) {
	attemptID := parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), attemptID, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
