package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	// GetByIDForUpdate locks the attempt row for the rest of tx.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	// GetByQuizAndUser returns nil, nil when the pair has no attempt.
	GetByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID uint, userID string) (*models.QuizAttempt, error)

	// Complete seals an InProgress attempt. It reports false when the attempt
	// was not InProgress at write time.
	Complete(ctx context.Context, tx *gorm.DB, id uint, completion AttemptCompletion) (bool, error)

	// List returns attempts ordered by score descending, then start time.
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, error)
}

// AnswerRepository interface for per-question answers of an attempt
type AnswerRepository interface {
	// Upsert inserts the answer or overwrites the row for the same (attempt, question).
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error
	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.UserAnswer, error)
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.UserAnswer, error)
	UpdateGrade(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error
	QuestionStats(ctx context.Context, tx *gorm.DB, quizID uint) ([]QuestionAnswerStats, error)
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	ListByTarget(ctx context.Context, tx *gorm.DB, targetType string, targetID uint) ([]*models.AuditLog, error)
}
