package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func paperCacheKey(id uint) string {
	return fmt.Sprintf("paper:%d", id)
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.getDB(tx).WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetPaper(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := cache.CacheOrExecute(ctx, q.cacheManager.Quiz, paperCacheKey(id), &quiz, q.cacheManager.QuizTTL, func() (interface{}, error) {
		return q.GetWithQuestions(ctx, nil, id)
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{})
	if filters.PublishedOnly {
		query = query.Where("is_active = ? AND is_published = ?", true, true)
	}
	if filters.DepartmentID != nil {
		query = query.Where("(department_id IS NULL OR department_id = ?)", *filters.DepartmentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC, id DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (q *QuizPostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	result := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("is_published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) IncrementTotals(ctx context.Context, tx *gorm.DB, id uint, questions int, marks decimal.Decimal) error {
	return q.getDB(tx).WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_questions": gorm.Expr("total_questions + ?", questions),
			"total_marks":     gorm.Expr("total_marks + ?", marks),
		}).Error
}

// Delete clears child rows explicitly so it does not depend on the driver
// enforcing the cascade constraints.
func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := q.getDB(tx).WithContext(ctx)

	attemptIDs := db.Model(&models.QuizAttempt{}).Select("id").Where("quiz_id IN ?", ids)
	if err := db.Where("attempt_id IN (?)", attemptIDs).Delete(&models.UserAnswer{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete answers: %w", err)
	}
	if err := db.Where("quiz_id IN ?", ids).Delete(&models.QuizAttempt{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete attempts: %w", err)
	}

	questionIDs := db.Model(&models.Question{}).Select("id").Where("quiz_id IN ?", ids)
	if err := db.Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete options: %w", err)
	}
	if err := db.Where("quiz_id IN ?", ids).Delete(&models.Question{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete questions: %w", err)
	}

	result := db.Where("id IN ?", ids).Delete(&models.Quiz{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete quizzes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (q *QuizPostgreSQL) InvalidateCache(ctx context.Context, id uint) {
	cache.SafeDelete(ctx, q.cacheManager.Quiz, paperCacheKey(id))
}

func (q *QuizPostgreSQL) InvalidateAllCaches(ctx context.Context) {
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Quiz, "paper:*")
}
