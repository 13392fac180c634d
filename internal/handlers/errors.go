package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/gin-gonic/gin"
)

const quizListPath = "/api/v1/quizzes"

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Code:    "FORBIDDEN",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden - insufficient permissions", Code: "FORBIDDEN"})
	case errors.Is(err, services.ErrNotAvailable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error(), Code: "NOT_AVAILABLE"})
	case errors.Is(err, services.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error(), Code: "ALREADY_COMPLETED"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
			Code:    "INVALID_STATE",
			Details: map[string]string{"redirect": quizListPath},
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
