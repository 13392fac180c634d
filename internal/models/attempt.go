package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "InProgress"
	AttemptStatusCompleted  AttemptStatus = "Completed"
)

// QuizAttempt is one taker's run through one quiz. A (quiz, user) pair owns at most one row.
type QuizAttempt struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	QuizID           uint            `json:"quiz_id" gorm:"not null;uniqueIndex:idx_attempt_quiz_user"`
	UserID           string          `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_attempt_quiz_user;index"`
	StartTime        time.Time       `json:"start_time" gorm:"not null"`
	EndTime          *time.Time      `json:"end_time"`
	TimeTakenMinutes *int            `json:"time_taken_minutes"`
	Score            decimal.Decimal `json:"score" gorm:"type:decimal(10,2);not null;default:0"`
	MaxScore         decimal.Decimal `json:"max_score" gorm:"type:decimal(10,2);not null;default:0"`
	Percentage       decimal.Decimal `json:"percentage" gorm:"type:numeric;not null;default:0"`
	Status           AttemptStatus   `json:"status" gorm:"not null;size:20;index"`

	// Snapshot of the taker identity at start, used by reports.
	TakerName    string `json:"taker_name" gorm:"size:255"`
	DepartmentID *uint  `json:"department_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []UserAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsInProgress() bool {
	return a.Status == AttemptStatusInProgress
}

func (a *QuizAttempt) IsCompleted() bool {
	return a.Status == AttemptStatusCompleted
}

type UserAnswer struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	AttemptID        uint            `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID       uint            `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question;index"`
	SelectedOptionID *uint           `json:"selected_option_id"`
	IsCorrect        bool            `json:"is_correct" gorm:"not null;default:false"`
	MarksObtained    decimal.Decimal `json:"marks_obtained" gorm:"type:decimal(10,2);not null;default:0"`
	AnsweredAt       time.Time       `json:"answered_at" gorm:"not null"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
