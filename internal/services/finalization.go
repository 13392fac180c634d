package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Finish re-grades every stored answer against current question data, totals the
// score and seals the attempt. Of two concurrent calls exactly one succeeds.
func (s *attemptService) Finish(ctx context.Context, attemptID uint, identity *models.Identity) (summary *AttemptSummary, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "finish_attempt", userIDOf(identity), attemptID, "attempt", time.Since(started), err)
	}()

	unlock, err := s.lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var sealed *models.QuizAttempt
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.loadOwnedInProgress(ctx, tx, attemptID, identity)
		if err != nil {
			return err
		}

		questions, err := s.repo.Question().ListByQuiz(ctx, tx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		byID := make(map[uint]*models.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		answers, err := s.repo.Answer().ListByAttempt(ctx, tx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}

		total := decimal.Zero
		for _, answer := range answers {
			isCorrect, marks := RegradeAnswer(answer, byID)
			if isCorrect != answer.IsCorrect || !marks.Equal(answer.MarksObtained) {
				answer.IsCorrect = isCorrect
				answer.MarksObtained = marks
				if err := s.repo.Answer().UpdateGrade(ctx, tx, answer); err != nil {
					return fmt.Errorf("failed to update answer grade: %w", err)
				}
			}
			total = total.Add(marks)
		}

		end := s.now()
		completion := repositories.AttemptCompletion{
			EndTime:          end,
			TimeTakenMinutes: ElapsedMinutes(attempt.StartTime, end),
			Score:            total,
			Percentage:       CalculatePercentage(total, attempt.MaxScore),
		}

		ok, err := s.repo.Attempt().Complete(ctx, tx, attempt.ID, completion)
		if err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}
		if !ok {
			return ErrAttemptNotInProgress
		}

		attempt.Status = models.AttemptStatusCompleted
		attempt.EndTime = &completion.EndTime
		attempt.TimeTakenMinutes = &completion.TimeTakenMinutes
		attempt.Score = completion.Score
		attempt.Percentage = completion.Percentage
		sealed = attempt

		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditAttemptCompleted, identity, "attempt", attempt.ID,
			fmt.Sprintf("Completed quiz %d with score %s/%s", attempt.QuizID, total.StringFixed(2), attempt.MaxScore.StringFixed(2)),
			map[string]interface{}{
				"score":      total.String(),
				"max_score":  attempt.MaxScore.String(),
				"percentage": DisplayPercentage(completion.Percentage),
				"answered":   len(answers),
			}))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewAttemptCompletedEvent(events.AttemptCompletedData{
		AttemptID:        sealed.ID,
		QuizID:           sealed.QuizID,
		UserID:           sealed.UserID,
		Score:            sealed.Score,
		MaxScore:         sealed.MaxScore,
		Percentage:       sealed.Percentage,
		TimeTakenMinutes: *sealed.TimeTakenMinutes,
		CompletedAt:      *sealed.EndTime,
	}))

	return newAttemptSummary(sealed), nil
}

// ===== RESULT =====

// GetResult returns the graded answer sheet. Admins and Uploaders may read any
// attempt, including one still in progress. A QuizTaker may only read their own,
// and only once it is finished; before that ErrResultNotSealed is returned.
func (s *attemptService) GetResult(ctx context.Context, attemptID uint, identity *models.Identity) (result *AttemptResult, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "get_result", userIDOf(identity), attemptID, "attempt", time.Since(started), err)
	}()

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if !CanViewResult(identity, attempt) {
		return nil, NewPermissionError(userIDOf(identity), attemptID, "attempt", "view result", "attempt belongs to another user")
	}
	if identity.Role == models.RoleQuizTaker && attempt.IsInProgress() {
		return nil, ErrResultNotSealed
	}

	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, nil, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	answers, err := s.repo.Answer().ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	byQuestion := make(map[uint]*models.UserAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	result = &AttemptResult{
		AttemptSummary: *newAttemptSummary(attempt),
		QuizTitle:      quiz.Title,
		TakerName:      attempt.TakerName,
		TotalQuestions: len(quiz.Questions),
		Answers:        make([]ResultAnswer, 0, len(answers)),
	}

	for _, q := range quiz.Questions {
		answer, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		options := make([]ResultOption, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, ResultOption{
				ID:         o.ID,
				Text:       o.Text,
				IsCorrect:  o.IsCorrect,
				IsSelected: answer.SelectedOptionID != nil && *answer.SelectedOptionID == o.ID,
			})
		}
		result.Answers = append(result.Answers, ResultAnswer{
			QuestionID:       q.ID,
			QuestionText:     q.Text,
			Marks:            q.Marks,
			SelectedOptionID: answer.SelectedOptionID,
			IsCorrect:        answer.IsCorrect,
			MarksObtained:    answer.MarksObtained,
			AnsweredAt:       answer.AnsweredAt,
			Options:          options,
		})
	}

	return result, nil
}
