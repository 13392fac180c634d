package services

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
)

// ===== ATTEMPT DTOs =====

// TakerOption never exposes correctness.
type TakerOption struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	SortOrder int    `json:"sort_order"`
}

type TakerQuestion struct {
	ID               uint            `json:"id"`
	Text             string          `json:"text"`
	Type             string          `json:"type"`
	Marks            decimal.Decimal `json:"marks"`
	SortOrder        int             `json:"sort_order"`
	Options          []TakerOption   `json:"options"`
	SelectedOptionID *uint           `json:"selected_option_id,omitempty"`
}

// AttemptSession is what a taker receives when starting or resuming.
type AttemptSession struct {
	AttemptID        uint                 `json:"attempt_id"`
	QuizID           uint                 `json:"quiz_id"`
	QuizTitle        string               `json:"quiz_title"`
	Status           models.AttemptStatus `json:"status"`
	Resumed          bool                 `json:"resumed"`
	StartTime        time.Time            `json:"start_time"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	MaxScore         decimal.Decimal      `json:"max_score"`
	AnsweredCount    int                  `json:"answered_count"`
	Questions        []TakerQuestion      `json:"questions"`
}

// AnswerReceipt acknowledges a recorded answer without revealing correctness.
type AnswerReceipt struct {
	AttemptID        uint      `json:"attempt_id"`
	QuestionID       uint      `json:"question_id"`
	SelectedOptionID *uint     `json:"selected_option_id"`
	AnsweredAt       time.Time `json:"answered_at"`
}

type AttemptSummary struct {
	AttemptID         uint                 `json:"attempt_id"`
	QuizID            uint                 `json:"quiz_id"`
	UserID            string               `json:"user_id"`
	Status            models.AttemptStatus `json:"status"`
	StartTime         time.Time            `json:"start_time"`
	EndTime           *time.Time           `json:"end_time,omitempty"`
	TimeTakenMinutes  *int                 `json:"time_taken_minutes,omitempty"`
	Score             decimal.Decimal      `json:"score"`
	MaxScore          decimal.Decimal      `json:"max_score"`
	Percentage        decimal.Decimal      `json:"percentage"`
	PercentageDisplay string               `json:"percentage_display"`
}

type ResultOption struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	IsSelected bool   `json:"is_selected"`
}

type ResultAnswer struct {
	QuestionID       uint            `json:"question_id"`
	QuestionText     string          `json:"question_text"`
	Marks            decimal.Decimal `json:"marks"`
	SelectedOptionID *uint           `json:"selected_option_id"`
	IsCorrect        bool            `json:"is_correct"`
	MarksObtained    decimal.Decimal `json:"marks_obtained"`
	AnsweredAt       time.Time       `json:"answered_at"`
	Options          []ResultOption  `json:"options"`
}

type AttemptResult struct {
	AttemptSummary
	QuizTitle      string         `json:"quiz_title"`
	TakerName      string         `json:"taker_name"`
	TotalQuestions int            `json:"total_questions"`
	Answers        []ResultAnswer `json:"answers"`
}

func newAttemptSummary(attempt *models.QuizAttempt) *AttemptSummary {
	return &AttemptSummary{
		AttemptID:         attempt.ID,
		QuizID:            attempt.QuizID,
		UserID:            attempt.UserID,
		Status:            attempt.Status,
		StartTime:         attempt.StartTime,
		EndTime:           attempt.EndTime,
		TimeTakenMinutes:  attempt.TimeTakenMinutes,
		Score:             attempt.Score,
		MaxScore:          attempt.MaxScore,
		Percentage:        attempt.Percentage,
		PercentageDisplay: DisplayPercentage(attempt.Percentage),
	}
}

// ===== QUIZ AUTHORING DTOs =====

type CreateQuizRequest struct {
	Title            string     `json:"title" validate:"required,min=3,max=200"`
	Description      *string    `json:"description" validate:"omitempty,max=1000"`
	TimeLimitMinutes int        `json:"time_limit_minutes" validate:"omitempty,min=1,max=300"`
	IsActive         *bool      `json:"is_active"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	DepartmentID     *uint      `json:"department_id"`
}

type AddQuestionRequest struct {
	Text string          `json:"text" validate:"required,min=3"`
	Type string          `json:"type" validate:"omitempty,question_type"`
	Marks decimal.Decimal `json:"marks" validate:"gte=0.1,lte=10"`
	// Options are listed in display order; CorrectOption is one based.
	Options       []string `json:"options" validate:"required,min=2,max=4,dive,option_text"`
	CorrectOption int      `json:"correct_option" validate:"required,min=1,max=4"`
}

type QuizListResponse struct {
	Quizzes []*models.Quiz `json:"quizzes"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

type DeleteQuizzesRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,max=100,dive,gt=0"`
}

type DeleteQuizzesResponse struct {
	Deleted int64 `json:"deleted"`
}

// ===== REPORT DTOs =====

type ResultRow struct {
	Rank              int             `json:"rank"`
	AttemptID         uint            `json:"attempt_id"`
	QuizID            uint            `json:"quiz_id"`
	UserID            string          `json:"user_id"`
	TakerName         string          `json:"taker_name"`
	DepartmentID      *uint           `json:"department_id,omitempty"`
	Score             decimal.Decimal `json:"score"`
	MaxScore          decimal.Decimal `json:"max_score"`
	Percentage        decimal.Decimal `json:"percentage"`
	PercentageDisplay string          `json:"percentage_display"`
	TimeTakenMinutes  *int            `json:"time_taken_minutes,omitempty"`
	EndTime           *time.Time      `json:"end_time,omitempty"`
}

type QuestionAnalytics struct {
	QuestionID     uint            `json:"question_id"`
	Text           string          `json:"text"`
	TotalAnswers   int64           `json:"total_answers"`
	CorrectAnswers int64           `json:"correct_answers"`
	SuccessRate    decimal.Decimal `json:"success_rate"`
}

type QuizAnalytics struct {
	QuizID             uint                `json:"quiz_id"`
	QuizTitle          string              `json:"quiz_title"`
	CompletedAttempts  int                 `json:"completed_attempts"`
	AverageScore       decimal.Decimal     `json:"average_score"`
	HighestScore       decimal.Decimal     `json:"highest_score"`
	LowestScore        decimal.Decimal     `json:"lowest_score"`
	AveragePercentage  decimal.Decimal     `json:"average_percentage"`
	AverageTimeMinutes decimal.Decimal     `json:"average_time_minutes"`
	Questions          []QuestionAnalytics `json:"questions"`
}

type DepartmentSummary struct {
	DepartmentID      *uint           `json:"department_id"`
	CompletedAttempts int             `json:"completed_attempts"`
	DistinctTakers    int             `json:"distinct_takers"`
	AverageScore      decimal.Decimal `json:"average_score"`
	AveragePercentage decimal.Decimal `json:"average_percentage"`
}

type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}
