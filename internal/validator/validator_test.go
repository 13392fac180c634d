package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type questionInput struct {
	Text  string          `json:"text" validate:"required"`
	Type  string          `json:"type" validate:"required,question_type"`
	Marks decimal.Decimal `json:"marks" validate:"gte=0.1,lte=10"`
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&questionInput{Type: "single_choice", Marks: decimal.NewFromInt(1)})

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "text", errs[0].Field)
	assert.Equal(t, "required", errs[0].Rule)
}

func TestValidate_CustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   questionInput
		wantErr string
	}{
		{
			name:  "valid question",
			input: questionInput{Text: "2+2?", Type: "single_choice", Marks: decimal.RequireFromString("1.5")},
		},
		{
			name:    "unknown question type",
			input:   questionInput{Text: "2+2?", Type: "essay", Marks: decimal.NewFromInt(1)},
			wantErr: "type",
		},
		{
			name:    "marks above range",
			input:   questionInput{Text: "2+2?", Type: "single_choice", Marks: decimal.NewFromInt(11)},
			wantErr: "marks",
		},
		{
			name:    "marks below range",
			input:   questionInput{Text: "2+2?", Type: "single_choice", Marks: decimal.RequireFromString("0.05")},
			wantErr: "marks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.wantErr, errs[0].Field)
		})
	}
}

func TestQuestionValidator_ValidateOptions(t *testing.T) {
	qv := NewQuestionValidator()

	assert.NoError(t, qv.ValidateOptions([]string{"3", "4", "", ""}, 1))
	assert.Error(t, qv.ValidateOptions([]string{"only", "", "", ""}, 0), "one filled option")
	assert.Error(t, qv.ValidateOptions([]string{"a", "b", "", ""}, 2), "correct option is blank")
	assert.Error(t, qv.ValidateOptions([]string{"a", "b"}, -1), "negative index")
	assert.Error(t, qv.ValidateOptions([]string{"a", "b", "c", "d", "e"}, 0), "too many options")
}

func TestQuestionValidator_ValidateMarks(t *testing.T) {
	qv := NewQuestionValidator()

	assert.NoError(t, qv.ValidateMarks(decimal.RequireFromString("0.1")))
	assert.NoError(t, qv.ValidateMarks(decimal.NewFromInt(10)))
	assert.Error(t, qv.ValidateMarks(decimal.Zero))
	assert.Error(t, qv.ValidateMarks(decimal.RequireFromString("10.01")))

	assert.NoError(t, qv.ValidateMarks(decimal.RequireFromString("2.50")))
	err := qv.ValidateMarks(decimal.RequireFromString("0.333"))
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "marks", errs[0].Field)
}
