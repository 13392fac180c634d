package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	quiz     repositories.QuizRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	answer   repositories.AnswerRepository
	audit    repositories.AuditRepository
}

// NewRepository wires the gorm-backed stores. The SQL is dialect neutral so the
// same code runs on PostgreSQL in production and SQLite in development.
func NewRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.Repository {
	return &repository{
		db:       db,
		quiz:     NewQuizPostgreSQL(db, cacheManager),
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		answer:   NewAnswerPostgreSQL(db),
		audit:    NewAuditPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *repository) Answer() repositories.AnswerRepository     { return r.answer }
func (r *repository) Audit() repositories.AuditRepository       { return r.audit }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
