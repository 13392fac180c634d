package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
)

type Quiz struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	Title            string          `json:"title" gorm:"not null;size:200;index"`
	Description      *string         `json:"description" gorm:"type:text"`
	TotalQuestions   int             `json:"total_questions" gorm:"not null;default:0"`
	TotalMarks       decimal.Decimal `json:"total_marks" gorm:"type:decimal(10,2);not null;default:0"`
	TimeLimitMinutes int             `json:"time_limit_minutes" gorm:"not null;default:30"`
	IsActive         bool            `json:"is_active" gorm:"not null"`
	IsPublished      bool            `json:"is_published" gorm:"not null;default:false;index"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	DepartmentID     *uint           `json:"department_id" gorm:"index"`

	CreatedBy string    `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question    `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Attempts  []QuizAttempt `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// IsOpenAt reports whether the availability window, if any, contains t.
func (q *Quiz) IsOpenAt(t time.Time) bool {
	if q.StartDate != nil && t.Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && t.After(*q.EndDate) {
		return false
	}
	return true
}

type Question struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	QuizID    uint            `json:"quiz_id" gorm:"not null;index"`
	Text      string          `json:"text" gorm:"not null;type:text"`
	Type      QuestionType    `json:"type" gorm:"not null;size:30;default:single_choice"`
	Marks     decimal.Decimal `json:"marks" gorm:"type:decimal(10,2);not null"`
	SortOrder int             `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`

	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

// FindOption returns the option with the given id or nil.
func (q *Question) FindOption(optionID uint) *Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"not null;size:500"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	SortOrder  int    `json:"sort_order" gorm:"not null;default:0"`
}

func (Option) TableName() string {
	return "options"
}
