package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	err := q.getDB(tx).WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, optionID, questionID uint) (*models.Option, error) {
	var option models.Option
	err := q.getDB(tx).WithContext(ctx).
		Where("id = ? AND question_id = ?", optionID, questionID).
		First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

func (q *QuestionPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) NextSortOrder(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	var maxOrder int
	err := q.getDB(tx).WithContext(ctx).Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}
