package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditQuizCreated      AuditEventType = "quiz_created"
	AuditQuizPublished    AuditEventType = "quiz_published"
	AuditQuizDeleted      AuditEventType = "quiz_deleted"
	AuditQuestionCreated  AuditEventType = "question_created"
	AuditQuestionImported AuditEventType = "question_imported"
	AuditAttemptStarted   AuditEventType = "attempt_started"
	AuditAnswerRecorded   AuditEventType = "answer_recorded"
	AuditAttemptCompleted AuditEventType = "attempt_completed"
	AuditResultsExported  AuditEventType = "results_exported"
)

type AuditLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventType AuditEventType `json:"event_type" gorm:"not null;size:50;index"`

	// Actor
	UserID   string   `json:"user_id" gorm:"not null;size:255;index"`
	UserRole UserRole `json:"user_role" gorm:"not null;size:20"`

	// Target
	TargetType string `json:"target_type" gorm:"size:50;index"` // quiz, question, attempt
	TargetID   *uint  `json:"target_id" gorm:"index"`

	Description string         `json:"description" gorm:"not null;type:text"`
	Metadata    datatypes.JSON `json:"metadata"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
