package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MaxOptionsPerQuestion = 4
	MaxOptionTextLength   = 500
	MarksScale            = 2
)

var (
	MinQuestionMarks = decimal.RequireFromString("0.1")
	MaxQuestionMarks = decimal.NewFromInt(10)
)

// QuestionValidator checks authoring rules that struct tags cannot express.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateMarks checks the per-question credit range and the two-decimal scale
// of the marks column.
func (v *QuestionValidator) ValidateMarks(marks decimal.Decimal) error {
	if marks.LessThan(MinQuestionMarks) || marks.GreaterThan(MaxQuestionMarks) {
		return NewValidationErrors("marks",
			fmt.Sprintf("must be between %s and %s", MinQuestionMarks, MaxQuestionMarks), marks.String())
	}
	if !marks.Equal(marks.Round(MarksScale)) {
		return NewValidationErrors("marks",
			fmt.Sprintf("must have at most %d decimal places", MarksScale), marks.String())
	}
	return nil
}

// ValidateOptions checks a single-choice option list. Blank options are ignored,
// at least two must remain and correctIndex (zero based) must point at one of them.
func (v *QuestionValidator) ValidateOptions(options []string, correctIndex int) error {
	if len(options) > MaxOptionsPerQuestion {
		return NewValidationErrors("options",
			fmt.Sprintf("must have at most %d options", MaxOptionsPerQuestion), len(options))
	}

	filled := 0
	for _, text := range options {
		if strings.TrimSpace(text) != "" {
			filled++
		}
	}
	if filled < 2 {
		return NewValidationErrors("options", "must have at least 2 non-empty options", filled)
	}

	if correctIndex < 0 || correctIndex >= len(options) || strings.TrimSpace(options[correctIndex]) == "" {
		return NewValidationErrors("correct_option", "must reference a non-empty option", correctIndex)
	}

	return nil
}
