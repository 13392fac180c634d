package services

import (
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOrResume_NewAttempt(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, taker("u1"))
	require.NoError(t, err)

	assert.False(t, session.Resumed)
	assert.Equal(t, models.AttemptStatusInProgress, session.Status)
	assertDecimal(t, "3", session.MaxScore)
	assert.True(t, fixtureNow.Equal(session.StartTime))
	require.Len(t, session.Questions, 2)
	assert.Equal(t, "Question 1", session.Questions[0].Text)
	assert.Len(t, session.Questions[0].Options, 3)
	assert.Nil(t, session.Questions[0].SelectedOptionID)

	attempt := f.loadAttempt(t, session.AttemptID)
	assert.Equal(t, "u1", attempt.UserID)
	assert.Equal(t, "Taker u1", attempt.TakerName)
	assertDecimal(t, "0", attempt.Score)

	started := f.publisher.EventsOfType(events.EventAttemptStarted)
	require.Len(t, started, 1)
	data, ok := started[0].Data.(events.AttemptStartedData)
	require.True(t, ok)
	assert.Equal(t, session.AttemptID, data.AttemptID)
}

func TestStartOrResume_ResumesInProgressAttempt(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	first, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	selected := wrongOption(quiz.Questions[1])
	_, err = f.attempts.Record(f.ctx, first.AttemptID, quiz.Questions[1].ID, selected, user)
	require.NoError(t, err)

	f.advance(5 * time.Minute)
	second, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.True(t, first.StartTime.Equal(second.StartTime))
	assert.Equal(t, 1, second.AnsweredCount)
	assert.Nil(t, second.Questions[0].SelectedOptionID)
	require.NotNil(t, second.Questions[1].SelectedOptionID)
	assert.Equal(t, *selected, *second.Questions[1].SelectedOptionID)
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptStarted), 1)
}

func TestStartOrResume_Errors(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1")

	past := fixtureNow.Add(-48 * time.Hour)
	future := fixtureNow.Add(48 * time.Hour)

	unpublished := &models.Quiz{Title: "Draft", IsActive: true, IsPublished: false, CreatedBy: "uploader-1"}
	inactive := &models.Quiz{Title: "Inactive", IsActive: false, IsPublished: true, CreatedBy: "uploader-1"}
	notYetOpen := &models.Quiz{Title: "Later", IsActive: true, IsPublished: true, StartDate: &future, CreatedBy: "uploader-1"}
	closed := &models.Quiz{Title: "Closed", IsActive: true, IsPublished: true, EndDate: &past, CreatedBy: "uploader-1"}
	for _, q := range []*models.Quiz{unpublished, inactive, notYetOpen, closed} {
		require.NoError(t, f.db.Create(q).Error)
	}

	tests := []struct {
		name     string
		quizID   uint
		identity *models.Identity
		kind     error
	}{
		{"unknown quiz", 9999, taker("u1"), ErrNotFound},
		{"unpublished quiz", unpublished.ID, taker("u1"), ErrNotAvailable},
		{"inactive quiz", inactive.ID, taker("u1"), ErrNotAvailable},
		{"window not open", notYetOpen.ID, taker("u1"), ErrNotAvailable},
		{"window closed", closed.ID, taker("u1"), ErrNotAvailable},
		{"admin cannot take", quiz.ID, admin(), ErrForbidden},
		{"missing identity", quiz.ID, nil, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.attempts.StartOrResume(f.ctx, tt.quizID, tt.identity)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestStartOrResume_ConcurrentStartsShareOneAttempt(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1")
	user := taker("u1")

	const callers = 4
	ids := make([]uint, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
			if assert.NoError(t, err) {
				ids[i] = session.AttemptID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, f.db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFinish_ScoresCorrectAnswersOnly(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), user)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[1].ID, wrongOption(quiz.Questions[1]), user)
	require.NoError(t, err)

	f.advance(7*time.Minute + 50*time.Second)
	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)

	assert.Equal(t, models.AttemptStatusCompleted, summary.Status)
	assertDecimal(t, "1", summary.Score)
	assertDecimal(t, "3", summary.MaxScore)
	assert.Equal(t, "33.33", summary.PercentageDisplay)
	require.NotNil(t, summary.TimeTakenMinutes)
	assert.Equal(t, 7, *summary.TimeTakenMinutes)

	stored := f.loadAttempt(t, session.AttemptID)
	assert.True(t, stored.IsCompleted())
	assertDecimal(t, "1", stored.Score)
	assert.Equal(t, "33.33", DisplayPercentage(stored.Percentage))
	require.NotNil(t, stored.EndTime)

	completed := f.publisher.EventsOfType(events.EventAttemptCompleted)
	require.Len(t, completed, 1)
	data := completed[0].Data.(events.AttemptCompletedData)
	assert.Equal(t, session.AttemptID, data.AttemptID)
	assertDecimal(t, "1", data.Score)
}

func TestFinish_UnansweredQuestionScoresZero(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), user)
	require.NoError(t, err)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	assertDecimal(t, "1", summary.Score)
	assert.Equal(t, "33.33", summary.PercentageDisplay)

	answers, err := f.repo.Answer().ListByAttempt(f.ctx, nil, session.AttemptID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestFinish_NothingAnswered(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	assertDecimal(t, "0", summary.Score)
	assert.Equal(t, "0.00", summary.PercentageDisplay)
	assert.Equal(t, 0, *summary.TimeTakenMinutes)
}

func TestFinish_ZeroMaxScoreGivesZeroPercentage(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t)
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	assertDecimal(t, "0", session.MaxScore)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	assertDecimal(t, "0", summary.Percentage)
}

func TestRecord_LastSelectionWins(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")
	q1 := quiz.Questions[0]

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	selections := []*uint{correctOption(q1), wrongOption(q1), nil, correctOption(q1), wrongOption(q1)}
	for _, selected := range selections {
		receipt, err := f.attempts.Record(f.ctx, session.AttemptID, q1.ID, selected, user)
		require.NoError(t, err)
		assert.Equal(t, selected, receipt.SelectedOptionID)
	}

	var rows []models.UserAnswer
	require.NoError(t, f.db.Where("attempt_id = ? AND question_id = ?", session.AttemptID, q1.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, *wrongOption(q1), *rows[0].SelectedOptionID)
	assert.False(t, rows[0].IsCorrect)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	assertDecimal(t, "0", summary.Score)
}

func TestRecord_OptionFromAnotherQuestionClearsSelection(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	foreign := correctOption(quiz.Questions[1])
	receipt, err := f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, foreign, user)
	require.NoError(t, err)
	assert.Nil(t, receipt.SelectedOptionID)

	answer, err := f.repo.Answer().GetByAttemptAndQuestion(f.ctx, nil, session.AttemptID, quiz.Questions[0].ID)
	require.NoError(t, err)
	assert.False(t, answer.IsCorrect)
	assertDecimal(t, "0", answer.MarksObtained)
}

func TestRecord_Errors(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1")
	other := f.seedQuiz(t, "1")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	q := quiz.Questions[0]

	_, err = f.attempts.Record(f.ctx, 9999, q.ID, correctOption(q), user)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, q.ID, correctOption(q), taker("u2"))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, 9999, nil, user)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, other.Questions[0].ID, correctOption(other.Questions[0]), user)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, q.ID, correctOption(q), user)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinish_RegradesAgainstCurrentOptions(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")
	q1 := quiz.Questions[0]

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)

	// Recorded as wrong, then the author fixes the key before the taker finishes.
	chosen := wrongOption(q1)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, q1.ID, chosen, user)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Option{}).Where("question_id = ?", q1.ID).Update("is_correct", false).Error)
	require.NoError(t, f.db.Model(&models.Option{}).Where("id = ?", *chosen).Update("is_correct", true).Error)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)
	assertDecimal(t, "1", summary.Score)

	answer, err := f.repo.Answer().GetByAttemptAndQuestion(f.ctx, nil, session.AttemptID, q1.ID)
	require.NoError(t, err)
	assert.True(t, answer.IsCorrect)
	assertDecimal(t, "1", answer.MarksObtained)
}

func TestFinish_SecondFinishAndRestartFail(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[1].ID, correctOption(quiz.Questions[1]), user)
	require.NoError(t, err)
	_, err = f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	_, err = f.attempts.Finish(f.ctx, session.AttemptID, user)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	stored := f.loadAttempt(t, session.AttemptID)
	assertDecimal(t, "2", stored.Score)
	assert.Equal(t, "66.67", DisplayPercentage(stored.Percentage))
	assert.Equal(t, 0, *stored.TimeTakenMinutes)
}

func TestFinish_ConcurrentCallsSealOnce(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), user)
	require.NoError(t, err)

	const callers = 2
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.attempts.Finish(f.ctx, session.AttemptID, user)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptCompleted), 1)

	stored := f.loadAttempt(t, session.AttemptID)
	assert.True(t, stored.IsCompleted())
	assertDecimal(t, "1", stored.Score)
}

func TestFinish_ForeignAttempt(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, taker("u1"))
	require.NoError(t, err)

	_, err = f.attempts.Finish(f.ctx, session.AttemptID, taker("u2"))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.attempts.Finish(f.ctx, 9999, taker("u1"))
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.True(t, f.loadAttempt(t, session.AttemptID).IsInProgress())
}

func TestGetResult_AccessRules(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "2")
	owner := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, owner)
	require.NoError(t, err)
	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), owner)
	require.NoError(t, err)

	// Before finishing: the owner must wait, authors may look.
	_, err = f.attempts.GetResult(f.ctx, session.AttemptID, owner)
	assert.ErrorIs(t, err, ErrInvalidState)

	live, err := f.attempts.GetResult(f.ctx, session.AttemptID, admin())
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatusInProgress, live.Status)

	_, err = f.attempts.Finish(f.ctx, session.AttemptID, owner)
	require.NoError(t, err)

	_, err = f.attempts.GetResult(f.ctx, session.AttemptID, taker("u2"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.attempts.GetResult(f.ctx, 9999, owner)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, identity := range []*models.Identity{owner, admin(), uploader()} {
		result, err := f.attempts.GetResult(f.ctx, session.AttemptID, identity)
		require.NoError(t, err, identity.Role)
		assert.Equal(t, "Safety basics", result.QuizTitle)
		assert.Equal(t, 2, result.TotalQuestions)
		assertDecimal(t, "1", result.Score)
		require.Len(t, result.Answers, 1)

		answer := result.Answers[0]
		assert.Equal(t, quiz.Questions[0].ID, answer.QuestionID)
		assert.True(t, answer.IsCorrect)
		require.Len(t, answer.Options, 3)
		assert.True(t, answer.Options[0].IsCorrect)
		assert.True(t, answer.Options[0].IsSelected)
		assert.False(t, answer.Options[1].IsSelected)
	}
}

func TestFinish_UsesMaxScoreCapturedAtStart(t *testing.T) {
	f := newFixture(t)
	quiz := f.seedQuiz(t, "1", "1", "1")
	user := taker("u1")

	session, err := f.attempts.StartOrResume(f.ctx, quiz.ID, user)
	require.NoError(t, err)
	assertDecimal(t, "3", session.MaxScore)

	_, err = f.attempts.Record(f.ctx, session.AttemptID, quiz.Questions[0].ID, correctOption(quiz.Questions[0]), user)
	require.NoError(t, err)

	// The quiz grows after the attempt started.
	_, err = f.quizzes.AddQuestion(f.ctx, quiz.ID, &AddQuestionRequest{
		Text:          "Late addition",
		Marks:         decimal.NewFromInt(2),
		Options:       []string{"Yes", "No"},
		CorrectOption: 1,
	}, uploader())
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Quiz{}).Where("id = ?", quiz.ID).
		Update("total_marks", decimal.NewFromInt(10)).Error)

	summary, err := f.attempts.Finish(f.ctx, session.AttemptID, user)
	require.NoError(t, err)

	assertDecimal(t, "1", summary.Score)
	assertDecimal(t, "3", summary.MaxScore)
	assert.Equal(t, "33.33", summary.PercentageDisplay)

	stored := f.loadAttempt(t, session.AttemptID)
	assertDecimal(t, "3", stored.MaxScore)
	assert.Equal(t, "33.33", DisplayPercentage(stored.Percentage))
}
