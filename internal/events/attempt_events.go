package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventSource  = "quiz-service"
	EventVersion = "1.0"
)

type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"
	EventQuizPublished    EventType = "quiz.published"
)

// Event is the envelope written to the broker for every domain event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedData struct {
	AttemptID        uint            `json:"attempt_id"`
	QuizID           uint            `json:"quiz_id"`
	QuizTitle        string          `json:"quiz_title"`
	UserID           string          `json:"user_id"`
	StartedAt        time.Time       `json:"started_at"`
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	MaxScore         decimal.Decimal `json:"max_score"`
}

type AttemptCompletedData struct {
	AttemptID        uint            `json:"attempt_id"`
	QuizID           uint            `json:"quiz_id"`
	UserID           string          `json:"user_id"`
	Score            decimal.Decimal `json:"score"`
	MaxScore         decimal.Decimal `json:"max_score"`
	Percentage       decimal.Decimal `json:"percentage"`
	TimeTakenMinutes int             `json:"time_taken_minutes"`
	CompletedAt      time.Time       `json:"completed_at"`
}

type QuizPublishedData struct {
	QuizID       uint   `json:"quiz_id"`
	Title        string `json:"title"`
	DepartmentID *uint  `json:"department_id,omitempty"`
	PublishedBy  string `json:"published_by"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(data AttemptStartedData) *Event {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptCompletedEvent(data AttemptCompletedData) *Event {
	return newEvent(EventAttemptCompleted, data)
}

func NewQuizPublishedEvent(data QuizPublishedData) *Event {
	return newEvent(EventQuizPublished, data)
}
