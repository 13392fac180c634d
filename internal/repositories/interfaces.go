package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository gives access to every store and to the transaction boundary.
// Methods taking a tx use it when non-nil and the default connection otherwise.
type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Audit() AuditRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	DepartmentID  *uint `json:"department_id"`
	PublishedOnly bool  `json:"published_only"`
	Limit         int   `json:"limit"`
	Offset        int   `json:"offset"`
}

type AttemptFilters struct {
	Status       *models.AttemptStatus `json:"status"`
	QuizID       *uint                 `json:"quiz_id"`
	DepartmentID *uint                 `json:"department_id"`
}

// ===== SHARED RESULT STRUCTS =====

// AttemptCompletion carries the values written when an attempt is sealed.
type AttemptCompletion struct {
	EndTime          time.Time
	TimeTakenMinutes int
	Score            decimal.Decimal
	Percentage       decimal.Decimal
}

type QuestionAnswerStats struct {
	QuestionID     uint  `json:"question_id"`
	TotalAnswers   int64 `json:"total_answers"`
	CorrectAnswers int64 `json:"correct_answers"`
}
