package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultTimeLimitMinutes = 30
	DefaultListLimit        = 20
	MaxListLimit            = 100
)

// QuizService handles quiz authoring and the list of quizzes a caller may see.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, identity *models.Identity) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint, identity *models.Identity) (*models.Quiz, error)
	List(ctx context.Context, identity *models.Identity, limit, offset int) (*QuizListResponse, error)
	AddQuestion(ctx context.Context, quizID uint, req *AddQuestionRequest, identity *models.Identity) (*models.Question, error)
	Publish(ctx context.Context, quizID uint, identity *models.Identity) (*models.Quiz, error)

	// Delete removes the quizzes with everything hanging off them, attempts included.
	Delete(ctx context.Context, ids []uint, identity *models.Identity) (int64, error)

	// ImportQuestions reads an xlsx or csv sheet. Invalid rows are reported and skipped.
	ImportQuestions(ctx context.Context, quizID uint, filename string, reader io.Reader, identity *models.Identity) (*models.ImportSummary, error)
}

type quizService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	opLog     *ServiceLogger
}

func NewQuizService(repo repositories.Repository, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &quizService{
		repo:      repo,
		publisher: publisher,
		validator: v,
		logger:    logger,
		opLog:     NewServiceLogger(logger, "quiz"),
	}
}

func requireAuthor(identity *models.Identity, resourceID uint, action string) error {
	if identity == nil || !identity.Role.CanAuthor() {
		return NewPermissionError(userIDOf(identity), resourceID, "quiz", action, "requires Admin or Uploader role")
	}
	return nil
}

// ===== CREATE =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, identity *models.Identity) (quiz *models.Quiz, err error) {
	started := time.Now()
	defer func() {
		var id uint
		if quiz != nil {
			id = quiz.ID
		}
		s.opLog.LogOperation(ctx, "create_quiz", userIDOf(identity), id, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, 0, "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return nil, validator.NewValidationErrors("end_date", "must be after start_date", req.EndDate)
	}

	quiz = &models.Quiz{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		TotalMarks:       decimal.Zero,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsActive:         true,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		DepartmentID:     req.DepartmentID,
		CreatedBy:        identity.UserID,
	}
	if quiz.TimeLimitMinutes == 0 {
		quiz.TimeLimitMinutes = DefaultTimeLimitMinutes
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
			return err
		}
		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditQuizCreated, identity, "quiz", quiz.ID,
			fmt.Sprintf("Created quiz %q", quiz.Title), nil))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	return quiz, nil
}

// ===== READ =====

// GetByID returns the full quiz including correct options, so only authors may call it.
func (s *quizService) GetByID(ctx context.Context, id uint, identity *models.Identity) (*models.Quiz, error) {
	if err := requireAuthor(identity, id, "view"); err != nil {
		return nil, err
	}
	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) List(ctx context.Context, identity *models.Identity, limit, offset int) (*QuizListResponse, error) {
	if identity == nil {
		return nil, NewPermissionError("", 0, "quiz", "list", "missing identity")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	filters := repositories.QuizFilters{Limit: limit, Offset: offset}
	if !identity.Role.CanAuthor() {
		filters.PublishedOnly = true
		filters.DepartmentID = identity.DepartmentID
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return &QuizListResponse{Quizzes: quizzes, Total: total, Limit: limit, Offset: offset}, nil
}

// ===== QUESTIONS =====

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, req *AddQuestionRequest, identity *models.Identity) (question *models.Question, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "add_question", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, quizID, "add_question"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validator.Question().ValidateMarks(req.Marks); err != nil {
		return nil, err
	}
	if err := s.validator.Question().ValidateOptions(req.Options, req.CorrectOption-1); err != nil {
		return nil, err
	}

	question = buildQuestion(quizID, req.Text, req.Marks, req.Options, req.CorrectOption-1)

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.insertQuestions(ctx, tx, quizID, []*models.Question{question}); err != nil {
			return err
		}
		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditQuestionCreated, identity, "question", question.ID,
			fmt.Sprintf("Added question to quiz %d", quizID),
			map[string]interface{}{"quiz_id": quizID, "marks": question.Marks.String()}))
	})
	if err != nil {
		return nil, err
	}

	s.repo.Quiz().InvalidateCache(ctx, quizID)
	return question, nil
}

// buildQuestion keeps only non-empty options, preserving order; correctIndex refers to the raw list.
func buildQuestion(quizID uint, text string, marks decimal.Decimal, options []string, correctIndex int) *models.Question {
	question := &models.Question{
		QuizID: quizID,
		Text:   strings.TrimSpace(text),
		Type:   models.QuestionSingleChoice,
		Marks:  marks,
	}
	order := 0
	for i, raw := range options {
		optionText := strings.TrimSpace(raw)
		if optionText == "" {
			continue
		}
		order++
		question.Options = append(question.Options, models.Option{
			Text:      optionText,
			IsCorrect: i == correctIndex,
			SortOrder: order,
		})
	}
	return question
}

// insertQuestions appends questions to the quiz and bumps its totals inside tx.
func (s *quizService) insertQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []*models.Question) error {
	if _, err := s.repo.Quiz().GetByID(ctx, tx, quizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	next, err := s.repo.Question().NextSortOrder(ctx, tx, quizID)
	if err != nil {
		return fmt.Errorf("failed to get next sort order: %w", err)
	}

	marks := decimal.Zero
	for i, q := range questions {
		q.QuizID = quizID
		q.SortOrder = next + i
		if err := s.repo.Question().Create(ctx, tx, q); err != nil {
			return err
		}
		marks = marks.Add(q.Marks)
	}

	if err := s.repo.Quiz().IncrementTotals(ctx, tx, quizID, len(questions), marks); err != nil {
		return fmt.Errorf("failed to update quiz totals: %w", err)
	}
	return nil
}

// ===== PUBLISH =====

func (s *quizService) Publish(ctx context.Context, quizID uint, identity *models.Identity) (quiz *models.Quiz, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "publish_quiz", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, quizID, "publish"); err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		quiz, err = s.repo.Quiz().GetByID(ctx, tx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if quiz.TotalQuestions == 0 {
			return NewBusinessRuleError("quiz_has_questions", "cannot publish a quiz without questions",
				map[string]interface{}{"quiz_id": quizID})
		}
		if err := s.repo.Quiz().SetPublished(ctx, tx, quizID, true); err != nil {
			return fmt.Errorf("failed to publish quiz: %w", err)
		}
		quiz.IsPublished = true
		return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditQuizPublished, identity, "quiz", quizID,
			fmt.Sprintf("Published quiz %q", quiz.Title), nil))
	})
	if err != nil {
		return nil, err
	}

	s.repo.Quiz().InvalidateCache(ctx, quizID)

	if s.publisher != nil {
		event := events.NewQuizPublishedEvent(events.QuizPublishedData{
			QuizID:       quiz.ID,
			Title:        quiz.Title,
			DepartmentID: quiz.DepartmentID,
			PublishedBy:  identity.UserID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish event", "event_type", event.Type, "quiz_id", quizID, "error", err)
		}
	}

	return quiz, nil
}

// ===== DELETE =====

func (s *quizService) Delete(ctx context.Context, ids []uint, identity *models.Identity) (deleted int64, err error) {
	started := time.Now()
	defer func() {
		var id uint
		if len(ids) == 1 {
			id = ids[0]
		}
		s.opLog.LogOperation(ctx, "delete_quiz", userIDOf(identity), id, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, 0, "delete"); err != nil {
		return 0, err
	}
	if err := s.validator.Validate(&DeleteQuizzesRequest{IDs: ids}); err != nil {
		return 0, err
	}

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var existing []*models.Quiz
		for _, id := range unique {
			quiz, err := s.repo.Quiz().GetByID(ctx, tx, id)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					continue
				}
				return fmt.Errorf("failed to get quiz: %w", err)
			}
			existing = append(existing, quiz)
		}
		if len(existing) == 0 {
			return ErrQuizNotFound
		}

		existingIDs := make([]uint, len(existing))
		for i, quiz := range existing {
			existingIDs[i] = quiz.ID
		}
		var err error
		if deleted, err = s.repo.Quiz().Delete(ctx, tx, existingIDs); err != nil {
			return err
		}

		for _, quiz := range existing {
			if err := s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditQuizDeleted, identity, "quiz", quiz.ID,
				fmt.Sprintf("Deleted quiz %q", quiz.Title), nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.repo.Quiz().InvalidateAllCaches(ctx)
	return deleted, nil
}
