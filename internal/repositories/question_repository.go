package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository stores questions together with their options.
type QuestionRepository interface {
	// Create inserts the question and its Options in one statement batch.
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetOption(ctx context.Context, tx *gorm.DB, optionID, questionID uint) (*models.Option, error)
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error)
	NextSortOrder(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)
}
