package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuizRepository stores quiz definitions.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)

	// GetWithQuestions loads questions and options ordered by sort order, straight from the store.
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)

	// GetPaper is the cached variant of GetWithQuestions used to render a quiz to takers.
	GetPaper(ctx context.Context, id uint) (*models.Quiz, error)

	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error
	IncrementTotals(ctx context.Context, tx *gorm.DB, id uint, questions int, marks decimal.Decimal) error

	// Delete removes quizzes with their questions, options, attempts and answers,
	// returning how many quizzes existed.
	Delete(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error)

	InvalidateCache(ctx context.Context, id uint)
	InvalidateAllCaches(ctx context.Context)
}
