package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// CreateQuiz creates a draft quiz
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
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

	h.LogRequest(c, "Creating quiz", "title", req.Title)

	quiz, err := h.quizService.Create(c.Request.Context(), &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// ListQuizzes lists quizzes visible to the caller
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	limit, offset := parsePagination(c)
	list, err := h.quizService.List(c.Request.Context(), identity, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetQuiz returns a quiz with questions and answer key
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// AddQuestion appends a single-choice question
// @Summary Add question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param question body services.AddQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.AddQuestionRequest
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

	question, err := h.quizService.AddQuestion(c.Request.Context(), id, &req, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// PublishQuiz makes a quiz visible to takers
// @Summary Publish quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id}/publish [post]
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	h.LogRequest(c, "Publishing quiz", "quiz_id", id)

	quiz, err := h.quizService.Publish(c.Request.Context(), id, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz removes a quiz with its questions and attempts
// @Summary Delete quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.DeleteQuizzesResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.deleteQuizzes(c, []uint{id})
}

// DeleteQuizzes removes several quizzes at once
// @Summary Delete quizzes
// @Tags quizzes
// @Accept json
// @Produce json
// @Param ids body services.DeleteQuizzesRequest true "Quiz IDs"
// @Success 200 {object} services.DeleteQuizzesResponse
// @Failure 400 {object} ErrorResponse
// @Router /quizzes [delete]
func (h *QuizHandler) DeleteQuizzes(c *gin.Context) {
	var req services.DeleteQuizzesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.deleteQuizzes(c, req.IDs)
}

func (h *QuizHandler) deleteQuizzes(c *gin.Context, ids []uint) {
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	h.LogRequest(c, "Deleting quizzes", "quiz_ids", ids)

	deleted, err := h.quizService.Delete(c.Request.Context(), ids, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.DeleteQuizzesResponse{Deleted: deleted})
}

// ImportQuestions imports questions from an uploaded xlsx or csv file
// @Summary Import questions
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param file formData file true "Question sheet"
// @Success 200 {object} models.ImportSummary
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/{id}/questions/import [post]
func (h *QuizHandler) ImportQuestions(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	identity := h.currentIdentity(c)
	if identity == nil {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "File is required", nil, err.Error())
		return
	}
	if header.Size > maxImportSize {
		h.RespondWithError(c, http.StatusBadRequest, "File too large", nil, "maximum size is 10MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "quiz_id", id, "filename", filepath.Base(header.Filename))

	summary, err := h.quizService.ImportQuestions(c.Request.Context(), id, header.Filename, file, identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
