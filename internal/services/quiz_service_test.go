package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func createDraft(t *testing.T, f *fixture) *models.Quiz {
	t.Helper()
	quiz, err := f.quizzes.Create(f.ctx, &CreateQuizRequest{Title: "Fire drill"}, uploader())
	require.NoError(t, err)
	return quiz
}

func TestQuizService_Create(t *testing.T) {
	f := newFixture(t)

	inactive := false
	quiz, err := f.quizzes.Create(f.ctx, &CreateQuizRequest{Title: "  Fire drill  ", IsActive: &inactive}, uploader())
	require.NoError(t, err)

	assert.Equal(t, "Fire drill", quiz.Title)
	assert.Equal(t, DefaultTimeLimitMinutes, quiz.TimeLimitMinutes)
	assert.False(t, quiz.IsActive)
	assert.False(t, quiz.IsPublished)
	assert.Equal(t, "uploader-1", quiz.CreatedBy)

	logs, err := f.repo.Audit().ListByTarget(f.ctx, nil, "quiz", quiz.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditQuizCreated, logs[0].EventType)
}

func TestQuizService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	start := fixtureNow
	end := fixtureNow.Add(-time.Hour)

	_, err := f.quizzes.Create(f.ctx, &CreateQuizRequest{Title: "ab"}, uploader())
	assert.True(t, IsValidation(err))

	_, err = f.quizzes.Create(f.ctx, &CreateQuizRequest{Title: "Window", StartDate: &start, EndDate: &end}, uploader())
	assert.True(t, IsValidation(err))

	_, err = f.quizzes.Create(f.ctx, &CreateQuizRequest{Title: "Taker quiz"}, taker("u1"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQuizService_AddQuestionAndPublish(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	_, err := f.quizzes.Publish(f.ctx, quiz.ID, uploader())
	assert.True(t, IsBusinessRule(err))

	q1, err := f.quizzes.AddQuestion(f.ctx, quiz.ID, &AddQuestionRequest{
		Text:          "Where is the assembly point?",
		Marks:         decimal.NewFromInt(1),
		Options:       []string{"Car park", "Roof", "", "Basement"},
		CorrectOption: 1,
	}, uploader())
	require.NoError(t, err)
	require.Len(t, q1.Options, 3)
	assert.True(t, q1.Options[0].IsCorrect)
	assert.Equal(t, "Basement", q1.Options[2].Text)
	assert.Equal(t, 3, q1.Options[2].SortOrder)

	q2, err := f.quizzes.AddQuestion(f.ctx, quiz.ID, &AddQuestionRequest{
		Text:          "Who calls the fire brigade?",
		Marks:         decimal.RequireFromString("2.5"),
		Options:       []string{"Anyone", "Warden"},
		CorrectOption: 2,
	}, admin())
	require.NoError(t, err)
	assert.Equal(t, q1.SortOrder+1, q2.SortOrder)

	stored, err := f.quizzes.GetByID(f.ctx, quiz.ID, admin())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalQuestions)
	assertDecimal(t, "3.5", stored.TotalMarks)
	require.Len(t, stored.Questions, 2)

	published, err := f.quizzes.Publish(f.ctx, quiz.ID, uploader())
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.Len(t, f.publisher.EventsOfType(events.EventQuizPublished), 1)

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, taker("u1"))
	require.NoError(t, err)
	assertDecimal(t, "3.5", session.MaxScore)
	assert.Len(t, session.Questions, 2)
}

func TestQuizService_AddQuestionValidation(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	tests := []struct {
		name string
		req  *AddQuestionRequest
	}{
		{"marks too low", &AddQuestionRequest{Text: "Question", Marks: decimal.Zero, Options: []string{"a", "b"}, CorrectOption: 1}},
		{"marks too high", &AddQuestionRequest{Text: "Question", Marks: decimal.NewFromInt(11), Options: []string{"a", "b"}, CorrectOption: 1}},
		{"one option", &AddQuestionRequest{Text: "Question", Marks: decimal.NewFromInt(1), Options: []string{"a"}, CorrectOption: 1}},
		{"five options", &AddQuestionRequest{Text: "Question", Marks: decimal.NewFromInt(1), Options: []string{"a", "b", "c", "d", "e"}, CorrectOption: 1}},
		{"blank correct option", &AddQuestionRequest{Text: "Question", Marks: decimal.NewFromInt(1), Options: []string{"a", "b", ""}, CorrectOption: 3}},
		{"option too long", &AddQuestionRequest{Text: "Question", Marks: decimal.NewFromInt(1), Options: []string{strings.Repeat("x", 501), "b"}, CorrectOption: 1}},
		{"missing text", &AddQuestionRequest{Marks: decimal.NewFromInt(1), Options: []string{"a", "b"}, CorrectOption: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.quizzes.AddQuestion(f.ctx, quiz.ID, tt.req, uploader())
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	_, err := f.quizzes.AddQuestion(f.ctx, 9999, &AddQuestionRequest{
		Text: "Question", Marks: decimal.NewFromInt(1), Options: []string{"a", "b"}, CorrectOption: 1,
	}, uploader())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizService_ListFiltersForTakers(t *testing.T) {
	f := newFixture(t)
	published := f.seedQuiz(t, "1")
	createDraft(t, f)

	deptA, deptB := uint(1), uint(2)
	restricted := &models.Quiz{Title: "Dept B only", IsActive: true, IsPublished: true, DepartmentID: &deptB, CreatedBy: "uploader-1"}
	require.NoError(t, f.db.Create(restricted).Error)

	takerA := taker("u1")
	takerA.DepartmentID = &deptA

	list, err := f.quizzes.List(f.ctx, takerA, 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Quizzes, 1)
	assert.Equal(t, published.ID, list.Quizzes[0].ID)
	assert.Equal(t, DefaultListLimit, list.Limit)

	all, err := f.quizzes.List(f.ctx, admin(), 500, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, MaxListLimit, all.Limit)

	_, err = f.quizzes.GetByID(f.ctx, published.ID, takerA)
	assert.ErrorIs(t, err, ErrForbidden)
}

func buildImportWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestQuizService_ImportQuestionsFromExcel(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	workbook := buildImportWorkbook(t, [][]interface{}{
		{"question_text", "marks", "option_1", "option_2", "option_3", "option_4", "correct_option"},
		{"Exit route?", 1, "Stairs", "Lift", "", "", 1},
		{"Extinguisher class for oil?", 2.5, "A", "B", "F", "", 3},
		{"", "", "", "", "", "", ""},
		{"Bad marks", "lots", "x", "y", "", "", 1},
		{"Missing answer", 1, "x", "y", "", "", 4},
	})

	summary, err := f.quizzes.ImportQuestions(f.ctx, quiz.ID, "questions.xlsx", workbook, uploader())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalRows)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 3, summary.SkippedCount)
	assert.Len(t, summary.CreatedQuestions, 2)
	require.Len(t, summary.Errors, 2)
	assert.Equal(t, 5, summary.Errors[0].Row)
	assert.Equal(t, "marks", summary.Errors[0].Column)
	assert.Equal(t, 6, summary.Errors[1].Row)

	stored, err := f.quizzes.GetByID(f.ctx, quiz.ID, uploader())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalQuestions)
	assertDecimal(t, "3.5", stored.TotalMarks)
	assert.True(t, stored.Questions[1].Options[2].IsCorrect)
}

func TestQuizService_ImportQuestionsFromCSV(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	csv := "question_text,marks,option_1,option_2,correct_option\n" +
		"Is the alarm tested weekly?,1,Yes,No,1\n"

	summary, err := f.quizzes.ImportQuestions(f.ctx, quiz.ID, "questions.csv", strings.NewReader(csv), uploader())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Empty(t, summary.Errors)
}

func TestQuizService_ImportRejectsBadFiles(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	_, err := f.quizzes.ImportQuestions(f.ctx, quiz.ID, "questions.txt", strings.NewReader("x"), uploader())
	assert.True(t, IsValidation(err))

	_, err = f.quizzes.ImportQuestions(f.ctx, quiz.ID, "questions.csv", strings.NewReader("question_text,marks\nQ,1\n"), uploader())
	assert.True(t, IsValidation(err))

	_, err = f.quizzes.ImportQuestions(f.ctx, quiz.ID, "questions.csv", strings.NewReader("x"), taker("u1"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQuizService_DeleteRemovesAttemptsAndAnswers(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	kept := f.seedQuiz(t, "1")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), user)
	require.NoError(t, err)
	_, err = f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	other, err := f.attempts.StartOrResume(f.ctx, kept.ID, user)
	require.NoError(t, err)

	deleted, err := f.quizzes.Delete(f.ctx, []uint{quiz.ID, quiz.ID, 9999}, uploader())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count := func(model interface{}, query string, args ...interface{}) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
		return n
	}
	questionIDs := []uint{quiz.Questions[0].ID, quiz.Questions[1].ID}
	assert.Zero(t, count(&models.Quiz{}, "id = ?", quiz.ID))
	assert.Zero(t, count(&models.Question{}, "quiz_id = ?", quiz.ID))
	assert.Zero(t, count(&models.Option{}, "question_id IN ?", questionIDs))
	assert.Zero(t, count(&models.QuizAttempt{}, "id = ?", session.AttemptID))
	assert.Zero(t, count(&models.UserAnswer{}, "attempt_id = ?", session.AttemptID))

	assert.Equal(t, int64(1), count(&models.Quiz{}, "id = ?", kept.ID))
	assert.Equal(t, int64(1), count(&models.QuizAttempt{}, "id = ?", other.AttemptID))

	logs, err := f.repo.Audit().ListByTarget(f.ctx, nil, "quiz", quiz.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditQuizDeleted, logs[0].EventType)

	_, err = f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizService_DeleteErrors(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1")

	_, err := f.quizzes.Delete(f.ctx, []uint{quiz.ID}, taker("u1"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.quizzes.Delete(f.ctx, nil, admin())
	assert.True(t, IsValidation(err))

	_, err = f.quizzes.Delete(f.ctx, []uint{9999}, admin())
	assert.ErrorIs(t, err, ErrQuizNotFound)

	deleted, err := f.quizzes.Delete(f.ctx, []uint{quiz.ID}, admin())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestQuizService_AddQuestionRejectsThreeDecimalMarks(t *testing.T) {
	f := newFixture(t)
	quiz := createDraft(t, f)

	_, err := f.quizzes.AddQuestion(f.ctx, quiz.ID, &AddQuestionRequest{
		Text:          "How many exits?",
		Marks:         decimal.RequireFromString("0.333"),
		Options:       []string{"One", "Two"},
		CorrectOption: 2,
	}, uploader())
	assert.True(t, IsValidation(err))
}
