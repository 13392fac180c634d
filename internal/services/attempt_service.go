package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AttemptService drives a taker through one quiz: start or resume, record answers,
// finish and read the sealed result.
type AttemptService interface {
	StartOrResume(ctx context.Context, quizID uint, identity *models.Identity) (*AttemptSession, error)
	Record(ctx context.Context, attemptID, questionID uint, selectedOptionID *uint, identity *models.Identity) (*AnswerReceipt, error)
	Finish(ctx context.Context, attemptID uint, identity *models.Identity) (*AttemptSummary, error)

	// GetResult refuses a taker's own attempt until it is finished.
	GetResult(ctx context.Context, attemptID uint, identity *models.Identity) (*AttemptResult, error)
}

type attemptService struct {
	repo      repositories.Repository
	locker    cache.AttemptLocker
	publisher events.EventPublisher
	logger    *slog.Logger
	opLog     *ServiceLogger
	now       func() time.Time
}

func NewAttemptService(repo repositories.Repository, locker cache.AttemptLocker, publisher events.EventPublisher, logger *slog.Logger) AttemptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &attemptService{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		opLog:     NewServiceLogger(logger, "attempt"),
		now:       time.Now,
	}
}

// ===== START OR RESUME =====

func (s *attemptService) StartOrResume(ctx context.Context, quizID uint, identity *models.Identity) (session *AttemptSession, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "start_or_resume", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if identity == nil || identity.Role != models.RoleQuizTaker || identity.UserID == "" {
		return nil, NewPermissionError(userIDOf(identity), quizID, "quiz", "attempt", "only quiz takers can take quizzes")
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := checkAvailability(quiz, s.now()); err != nil {
		return nil, err
	}

	existing, err := s.repo.Attempt().GetByQuizAndUser(ctx, nil, quizID, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}
	if existing != nil {
		return s.resume(ctx, existing)
	}

	attempt := &models.QuizAttempt{
		QuizID:       quiz.ID,
		UserID:       identity.UserID,
		StartTime:    s.now(),
		Score:        decimal.Zero,
		MaxScore:     quiz.TotalMarks,
		Percentage:   decimal.Zero,
		Status:       models.AttemptStatusInProgress,
		TakerName:    identity.Name,
		DepartmentID: identity.DepartmentID,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			return err
		}
		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditAttemptStarted, identity, "attempt", attempt.ID,
			fmt.Sprintf("Started quiz %q", quiz.Title),
			map[string]interface{}{"quiz_id": quiz.ID, "max_score": quiz.TotalMarks.String()}))
	})
	if err != nil {
		// A concurrent start for the same pair won the unique index.
		winner, lookupErr := s.repo.Attempt().GetByQuizAndUser(ctx, nil, quizID, identity.UserID)
		if lookupErr == nil && winner != nil {
			return s.resume(ctx, winner)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedData{
		AttemptID:        attempt.ID,
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		UserID:           attempt.UserID,
		StartedAt:        attempt.StartTime,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		MaxScore:         attempt.MaxScore,
	}))

	return s.buildSession(ctx, attempt, false)
}

func checkAvailability(quiz *models.Quiz, now time.Time) error {
	if !quiz.IsActive || !quiz.IsPublished {
		return ErrQuizNotPublished
	}
	if !quiz.IsOpenAt(now) {
		return ErrQuizOutsideWindow
	}
	return nil
}

func (s *attemptService) resume(ctx context.Context, attempt *models.QuizAttempt) (*AttemptSession, error) {
	if attempt.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	return s.buildSession(ctx, attempt, true)
}

func (s *attemptService) buildSession(ctx context.Context, attempt *models.QuizAttempt, resumed bool) (*AttemptSession, error) {
	paper, err := s.repo.Quiz().GetPaper(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz questions: %w", err)
	}

	answers, err := s.repo.Answer().ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	selected := make(map[uint]*uint, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOptionID
	}

	questions := make([]TakerQuestion, 0, len(paper.Questions))
	for _, q := range paper.Questions {
		options := make([]TakerOption, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, TakerOption{ID: o.ID, Text: o.Text, SortOrder: o.SortOrder})
		}
		questions = append(questions, TakerQuestion{
			ID:               q.ID,
			Text:             q.Text,
			Type:             string(q.Type),
			Marks:            q.Marks,
			SortOrder:        q.SortOrder,
			Options:          options,
			SelectedOptionID: selected[q.ID],
		})
	}

	return &AttemptSession{
		AttemptID:        attempt.ID,
		QuizID:           attempt.QuizID,
		QuizTitle:        paper.Title,
		Status:           attempt.Status,
		Resumed:          resumed,
		StartTime:        attempt.StartTime,
		TimeLimitMinutes: paper.TimeLimitMinutes,
		MaxScore:         attempt.MaxScore,
		AnsweredCount:    len(answers),
		Questions:        questions,
	}, nil
}

// ===== SHARED HELPERS =====

// loadOwnedInProgress locks the attempt and checks it belongs to the caller and is still open.
func (s *attemptService) loadOwnedInProgress(ctx context.Context, tx *gorm.DB, attemptID uint, identity *models.Identity) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotInProgress
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if identity == nil || attempt.UserID != identity.UserID || !attempt.IsInProgress() {
		return nil, ErrAttemptNotInProgress
	}
	return attempt, nil
}

func (s *attemptService) lock(ctx context.Context, attemptID uint) (func(), error) {
	unlock, err := s.locker.Lock(ctx, attemptID)
	if err != nil {
		if errors.Is(err, cache.ErrLockTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrAttemptBusy, err)
		}
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	return unlock, nil
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

func userIDOf(identity *models.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.UserID
}
