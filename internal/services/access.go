package services

import "github.com/SAP-F-2025/quiz-service/internal/models"

// CanViewResult is the result read guard: authors see every attempt, takers only their own.
func CanViewResult(identity *models.Identity, attempt *models.QuizAttempt) bool {
	if identity == nil || attempt == nil {
		return false
	}
	switch identity.Role {
	case models.RoleAdmin, models.RoleUploader:
		return true
	case models.RoleQuizTaker:
		return identity.UserID != "" && attempt.UserID == identity.UserID
	default:
		return false
	}
}
