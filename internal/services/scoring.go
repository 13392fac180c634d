package services

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GradeSelection applies the single-choice rule: the question's marks when the
// selected option exists and is correct, zero otherwise.
func GradeSelection(question *models.Question, option *models.Option) (bool, decimal.Decimal) {
	if question == nil || option == nil || option.QuestionID != question.ID || !option.IsCorrect {
		return false, decimal.Zero
	}
	return true, question.Marks
}

// RegradeAnswer re-resolves an answer against current question data.
func RegradeAnswer(answer *models.UserAnswer, questions map[uint]*models.Question) (bool, decimal.Decimal) {
	question := questions[answer.QuestionID]
	if question == nil || answer.SelectedOptionID == nil {
		return false, decimal.Zero
	}
	return GradeSelection(question, question.FindOption(*answer.SelectedOptionID))
}

// CalculatePercentage returns score/max*100 at full precision, or zero when max is not positive.
func CalculatePercentage(score, maxScore decimal.Decimal) decimal.Decimal {
	if !maxScore.IsPositive() {
		return decimal.Zero
	}
	return score.Mul(hundred).Div(maxScore)
}

// DisplayPercentage rounds a stored percentage to two decimals.
func DisplayPercentage(percentage decimal.Decimal) string {
	return percentage.StringFixed(2)
}

// ElapsedMinutes truncates the duration between start and end to whole minutes.
func ElapsedMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
