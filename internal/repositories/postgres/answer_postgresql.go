package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error {
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id", "is_correct", "marks_obtained", "answered_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.UserAnswer, error) {
	var answer models.UserAnswer
	err := a.getDB(tx).WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.UserAnswer, error) {
	var answers []*models.UserAnswer
	err := a.getDB(tx).WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) UpdateGrade(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error {
	return a.getDB(tx).WithContext(ctx).Model(&models.UserAnswer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"is_correct":     answer.IsCorrect,
			"marks_obtained": answer.MarksObtained,
		}).Error
}

// QuestionStats counts answers per question across completed attempts of a quiz.
func (a *AnswerPostgreSQL) QuestionStats(ctx context.Context, tx *gorm.DB, quizID uint) ([]repositories.QuestionAnswerStats, error) {
	var stats []repositories.QuestionAnswerStats
	err := a.getDB(tx).WithContext(ctx).
		Table("user_answers").
		Select("user_answers.question_id AS question_id, " +
			"COUNT(*) AS total_answers, " +
			"SUM(CASE WHEN user_answers.is_correct THEN 1 ELSE 0 END) AS correct_answers").
		Joins("JOIN quiz_attempts ON quiz_attempts.id = user_answers.attempt_id").
		Where("quiz_attempts.quiz_id = ? AND quiz_attempts.status = ?", quizID, models.AttemptStatusCompleted).
		Group("user_answers.question_id").
		Order("user_answers.question_id").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
