package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

// Error kinds every operation reports. Specific errors below unwrap to one of them.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNotAvailable     = errors.New("quiz is not available")
	ErrAlreadyCompleted = errors.New("quiz already completed")
	ErrInvalidState     = errors.New("attempt is not in the required state")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
)

var (
	ErrQuizNotFound     = kindError(ErrNotFound, "quiz not found")
	ErrQuestionNotFound = kindError(ErrNotFound, "question not found")
	ErrAttemptNotFound  = kindError(ErrNotFound, "attempt not found")

	ErrQuizNotPublished  = kindError(ErrNotAvailable, "quiz is not active or not published")
	ErrQuizOutsideWindow = kindError(ErrNotAvailable, "quiz is outside its availability window")

	ErrAttemptNotInProgress = kindError(ErrInvalidState, "attempt does not exist or is not in progress")
	ErrAttemptBusy          = kindError(ErrInvalidState, "attempt is being updated, retry")
	ErrResultNotSealed      = kindError(ErrInvalidState, "attempt has not been finished yet")
)

type kindErr struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &kindErr{kind: kind, msg: msg}
}

func (e *kindErr) Error() string { return e.msg }
func (e *kindErr) Unwrap() error { return e.kind }

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error { return ErrForbidden }

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR HELPERS =====

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsNotAvailable(err error) bool     { return errors.Is(err, ErrNotAvailable) }
func IsAlreadyCompleted(err error) bool { return errors.Is(err, ErrAlreadyCompleted) }
func IsInvalidState(err error) bool     { return errors.Is(err, ErrInvalidState) }
func IsForbidden(err error) bool        { return errors.Is(err, ErrForbidden) }

func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsExpected reports whether err is a typed outcome the caller can act on,
// as opposed to an infrastructure failure.
func IsExpected(err error) bool {
	return IsNotFound(err) || IsNotAvailable(err) || IsAlreadyCompleted(err) ||
		IsInvalidState(err) || IsForbidden(err) || IsValidation(err) || IsBusinessRule(err)
}
