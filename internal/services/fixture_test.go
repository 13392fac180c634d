package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixtureNow = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	attempts  *attemptService
	quizzes   QuizService
	reports   ReportService
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := pkg.OpenSQLite(filepath.Join(t.TempDir(), "quiz.db"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, pkg.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewRepository(db, cache.NewCacheManager(nil, log))
	publisher := events.NewMockEventPublisher(log)

	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		repo:      repo,
		publisher: publisher,
		quizzes:   NewQuizService(repo, publisher, validator.New(), log),
		reports:   NewReportService(repo, log),
		clock:     fixtureNow,
	}
	f.attempts = NewAttemptService(repo, cache.NewLocalLocker(2*time.Second), publisher, log).(*attemptService)
	f.attempts.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func taker(userID string) *models.Identity {
	return &models.Identity{UserID: userID, Name: "Taker " + userID, Role: models.RoleQuizTaker}
}

func admin() *models.Identity {
	return &models.Identity{UserID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
}

func uploader() *models.Identity {
	return &models.Identity{UserID: "uploader-1", Name: "Uploader", Role: models.RoleUploader}
}

// seedQuiz stores a published quiz with one question per marks value. Each question
// has three options and the first one is correct.
func (f *fixture) seedQuiz(t *testing.T, marks ...string) *models.Quiz {
	t.Helper()

	quiz := &models.Quiz{
		Title:            "Safety basics",
		TimeLimitMinutes: 30,
		IsActive:         true,
		IsPublished:      true,
		CreatedBy:        "uploader-1",
		TotalMarks:       decimal.Zero,
	}
	for i, m := range marks {
		value := decimal.RequireFromString(m)
		quiz.Questions = append(quiz.Questions, models.Question{
			Text:      fmt.Sprintf("Question %d", i+1),
			Type:      models.QuestionSingleChoice,
			Marks:     value,
			SortOrder: i + 1,
			Options: []models.Option{
				{Text: "A", IsCorrect: true, SortOrder: 1},
				{Text: "B", SortOrder: 2},
				{Text: "C", SortOrder: 3},
			},
		})
		quiz.TotalMarks = quiz.TotalMarks.Add(value)
	}
	quiz.TotalQuestions = len(marks)

	require.NoError(t, f.db.Create(quiz).Error)
	return quiz
}

func correctOption(q models.Question) *uint {
	for _, o := range q.Options {
		if o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func wrongOption(q models.Question) *uint {
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func (f *fixture) loadAttempt(t *testing.T, id uint) *models.QuizAttempt {
	t.Helper()
	attempt, err := f.repo.Attempt().GetByID(f.ctx, nil, id)
	require.NoError(t, err)
	return attempt
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
