package validator

import (
	"github.com/SAP-F-2025/quiz-service/internal/errors"
)

type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}

// NewValidationErrors wraps a single field failure as ValidationErrors.
func NewValidationErrors(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{*errors.NewValidationError(field, message, value)}
}
