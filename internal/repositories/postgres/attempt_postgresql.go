package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if err := a.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.getDB(tx).WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetByIDForUpdate issues SELECT ... FOR UPDATE. SQLite ignores the locking clause;
// it serialises writers on its own.
func (a *AttemptPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID uint, userID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := a.getDB(tx).WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id uint, completion repositories.AttemptCompletion) (bool, error) {
	result := a.getDB(tx).WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":             models.AttemptStatusCompleted,
			"end_time":           completion.EndTime,
			"time_taken_minutes": completion.TimeTakenMinutes,
			"score":              completion.Score,
			"percentage":         completion.Percentage,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete attempt: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt

	query := a.getDB(tx).WithContext(ctx).Model(&models.QuizAttempt{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.DepartmentID != nil {
		query = query.Where("department_id = ?", *filters.DepartmentID)
	}

	if err := query.Order("score DESC, start_time ASC, id ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
