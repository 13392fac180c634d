package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportService exposes sealed results to authors.
type ReportService interface {
	ListResults(ctx context.Context, quizID uint, identity *models.Identity) ([]*ResultRow, error)
	QuizAnalytics(ctx context.Context, quizID uint, identity *models.Identity) (*QuizAnalytics, error)
	DepartmentReport(ctx context.Context, identity *models.Identity) ([]*DepartmentSummary, error)
	ExportResults(ctx context.Context, quizID uint, identity *models.Identity) (*ExportFile, error)
}

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	opLog  *ServiceLogger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportService{
		repo:   repo,
		logger: logger,
		opLog:  NewServiceLogger(logger, "report"),
	}
}

func (s *reportService) completedAttempts(ctx context.Context, quizID *uint, departmentID *uint) ([]*models.QuizAttempt, error) {
	status := models.AttemptStatusCompleted
	attempts, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		Status:       &status,
		QuizID:       quizID,
		DepartmentID: departmentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *reportService) getQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// ListResults ranks completed attempts by score. Equal scores share a rank.
func (s *reportService) ListResults(ctx context.Context, quizID uint, identity *models.Identity) ([]*ResultRow, error) {
	if err := requireAuthor(identity, quizID, "view_results"); err != nil {
		return nil, err
	}
	if _, err := s.getQuiz(ctx, quizID); err != nil {
		return nil, err
	}

	attempts, err := s.completedAttempts(ctx, &quizID, nil)
	if err != nil {
		return nil, err
	}
	return rankAttempts(attempts), nil
}

func rankAttempts(attempts []*models.QuizAttempt) []*ResultRow {
	rows := make([]*ResultRow, 0, len(attempts))
	rank := 0
	for i, a := range attempts {
		if i == 0 || !a.Score.Equal(attempts[i-1].Score) {
			rank = i + 1
		}
		rows = append(rows, &ResultRow{
			Rank:              rank,
			AttemptID:         a.ID,
			QuizID:            a.QuizID,
			UserID:            a.UserID,
			TakerName:         a.TakerName,
			DepartmentID:      a.DepartmentID,
			Score:             a.Score,
			MaxScore:          a.MaxScore,
			Percentage:        a.Percentage,
			PercentageDisplay: DisplayPercentage(a.Percentage),
			TimeTakenMinutes:  a.TimeTakenMinutes,
			EndTime:           a.EndTime,
		})
	}
	return rows
}

// ===== ANALYTICS =====

func (s *reportService) QuizAnalytics(ctx context.Context, quizID uint, identity *models.Identity) (analytics *QuizAnalytics, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "quiz_analytics", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, quizID, "view_analytics"); err != nil {
		return nil, err
	}
	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	attempts, err := s.completedAttempts(ctx, &quizID, nil)
	if err != nil {
		return nil, err
	}

	analytics = &QuizAnalytics{
		QuizID:             quiz.ID,
		QuizTitle:          quiz.Title,
		CompletedAttempts:  len(attempts),
		AverageScore:       decimal.Zero,
		HighestScore:       decimal.Zero,
		LowestScore:        decimal.Zero,
		AveragePercentage:  decimal.Zero,
		AverageTimeMinutes: decimal.Zero,
	}

	if len(attempts) > 0 {
		scores := make([]decimal.Decimal, 0, len(attempts))
		percentages := make([]decimal.Decimal, 0, len(attempts))
		minutes := make([]decimal.Decimal, 0, len(attempts))
		for _, a := range attempts {
			scores = append(scores, a.Score)
			percentages = append(percentages, a.Percentage)
			if a.TimeTakenMinutes != nil {
				minutes = append(minutes, decimal.NewFromInt(int64(*a.TimeTakenMinutes)))
			}
		}
		analytics.AverageScore = average(scores)
		analytics.HighestScore = decimal.Max(scores[0], scores[1:]...)
		analytics.LowestScore = decimal.Min(scores[0], scores[1:]...)
		analytics.AveragePercentage = average(percentages)
		analytics.AverageTimeMinutes = average(minutes)
	}

	stats, err := s.repo.Answer().QuestionStats(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question stats: %w", err)
	}
	byQuestion := make(map[uint]repositories.QuestionAnswerStats, len(stats))
	for _, st := range stats {
		byQuestion[st.QuestionID] = st
	}

	for _, q := range quiz.Questions {
		st := byQuestion[q.ID]
		rate := decimal.Zero
		if st.TotalAnswers > 0 {
			rate = CalculatePercentage(decimal.NewFromInt(st.CorrectAnswers), decimal.NewFromInt(st.TotalAnswers)).Round(2)
		}
		analytics.Questions = append(analytics.Questions, QuestionAnalytics{
			QuestionID:     q.ID,
			Text:           q.Text,
			TotalAnswers:   st.TotalAnswers,
			CorrectAnswers: st.CorrectAnswers,
			SuccessRate:    rate,
		})
	}

	return analytics, nil
}

func average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Avg(values[0], values[1:]...).Round(2)
}

// DepartmentReport groups completed attempts by the taker's department. Uploaders
// only see their own department and need one to see anything.
func (s *reportService) DepartmentReport(ctx context.Context, identity *models.Identity) ([]*DepartmentSummary, error) {
	if err := requireAuthor(identity, 0, "view_department_report"); err != nil {
		return nil, err
	}

	var departmentID *uint
	if identity.Role == models.RoleUploader {
		if identity.DepartmentID == nil {
			return nil, NewPermissionError(identity.UserID, 0, "department_report", "view",
				"uploader is not assigned to a department")
		}
		departmentID = identity.DepartmentID
	}
	attempts, err := s.completedAttempts(ctx, nil, departmentID)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		id          *uint
		scores      []decimal.Decimal
		percentages []decimal.Decimal
		takers      map[string]struct{}
	}
	buckets := make(map[uint]*bucket)
	key := func(id *uint) uint {
		if id == nil {
			return 0
		}
		return *id
	}

	for _, a := range attempts {
		k := key(a.DepartmentID)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{id: a.DepartmentID, takers: make(map[string]struct{})}
			buckets[k] = b
		}
		b.scores = append(b.scores, a.Score)
		b.percentages = append(b.percentages, a.Percentage)
		b.takers[a.UserID] = struct{}{}
	}

	report := make([]*DepartmentSummary, 0, len(buckets))
	for _, b := range buckets {
		report = append(report, &DepartmentSummary{
			DepartmentID:      b.id,
			CompletedAttempts: len(b.scores),
			DistinctTakers:    len(b.takers),
			AverageScore:      average(b.scores),
			AveragePercentage: average(b.percentages),
		})
	}
	sort.Slice(report, func(i, j int) bool {
		return key(report[i].DepartmentID) < key(report[j].DepartmentID)
	})

	return report, nil
}

// ===== EXPORT =====

func (s *reportService) ExportResults(ctx context.Context, quizID uint, identity *models.Identity) (file *ExportFile, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "export_results", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, quizID, "export_results"); err != nil {
		return nil, err
	}
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.completedAttempts(ctx, &quizID, nil)
	if err != nil {
		return nil, err
	}

	content, err := writeResultsWorkbook(quiz.Title, rankAttempts(attempts))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Audit().Create(ctx, nil, newAuditEntry(models.AuditResultsExported, identity, "quiz", quizID,
		fmt.Sprintf("Exported %d results of quiz %q", len(attempts), quiz.Title), nil)); err != nil {
		s.logger.Warn("Failed to write audit entry", "quiz_id", quizID, "error", err)
	}

	return &ExportFile{
		FileName:    fmt.Sprintf("quiz_%d_results.xlsx", quizID),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

const (
	resultsSheet     = "Quiz Results"
	resultsHeaderRow = 3
)

var resultHeaders = []string{
	"Rank", "Full Name", "User ID", "Department", "Score", "Max Score", "Percentage", "Time Taken (min)", "Completed At",
}

// writeResultsWorkbook lays out a title row, a blank row, the header row and one row per result.
func writeResultsWorkbook(title string, rows []*ResultRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename Excel sheet: %w", err)
	}

	f.SetCellValue(resultsSheet, "A1", title+" - Results")
	for i, header := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, resultsHeaderRow)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for r, row := range rows {
		values := []interface{}{
			row.Rank,
			row.TakerName,
			row.UserID,
			"",
			row.Score.InexactFloat64(),
			row.MaxScore.InexactFloat64(),
			row.Percentage.Round(2).InexactFloat64(),
			"",
			"",
		}
		if row.DepartmentID != nil {
			values[3] = *row.DepartmentID
		}
		if row.TimeTakenMinutes != nil {
			values[7] = *row.TimeTakenMinutes
		}
		if row.EndTime != nil {
			values[8] = row.EndTime.Format("2006-01-02 15:04:05")
		}

		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, resultsHeaderRow+1+r)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
