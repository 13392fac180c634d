package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// Record upserts the caller's selection for one question. A nil or foreign option
// clears the selection and grades it as wrong.
func (s *attemptService) Record(ctx context.Context, attemptID, questionID uint, selectedOptionID *uint, identity *models.Identity) (receipt *AnswerReceipt, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "record_answer", userIDOf(identity), attemptID, "attempt", time.Since(started), err)
	}()

	unlock, err := s.lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var stored *models.UserAnswer
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.loadOwnedInProgress(ctx, tx, attemptID, identity)
		if err != nil {
			return err
		}

		question, err := s.repo.Question().GetByID(ctx, tx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if question.QuizID != attempt.QuizID {
			return ErrQuestionNotFound
		}

		var option *models.Option
		if selectedOptionID != nil {
			option, err = s.repo.Question().GetOption(ctx, tx, *selectedOptionID, question.ID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get option: %w", err)
			}
		}

		isCorrect, marks := GradeSelection(question, option)
		answer := &models.UserAnswer{
			AttemptID:     attempt.ID,
			QuestionID:    question.ID,
			IsCorrect:     isCorrect,
			MarksObtained: marks,
			AnsweredAt:    s.now(),
		}
		if option != nil {
			answer.SelectedOptionID = &option.ID
		}

		if err := s.repo.Answer().Upsert(ctx, tx, answer); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}

		stored, err = s.repo.Answer().GetByAttemptAndQuestion(ctx, tx, attempt.ID, question.ID)
		if err != nil {
			return fmt.Errorf("failed to reload answer: %w", err)
		}

		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditAnswerRecorded, identity, "attempt", attempt.ID,
			fmt.Sprintf("Answered question %d", question.ID),
			map[string]interface{}{"question_id": question.ID, "selected_option_id": answer.SelectedOptionID}))
	})
	if err != nil {
		return nil, err
	}

	return &AnswerReceipt{
		AttemptID:        stored.AttemptID,
		QuestionID:       stored.QuestionID,
		SelectedOptionID: stored.SelectedOptionID,
		AnsweredAt:       stored.AnsweredAt,
	}, nil
}
