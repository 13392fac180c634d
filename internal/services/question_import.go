package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Import sheet columns. Option columns are option_1..option_4.
const (
	colQuestionText  = "question_text"
	colMarks         = "marks"
	colCorrectOption = "correct_option"
	colOptionPrefix  = "option_"
)

func (s *quizService) ImportQuestions(ctx context.Context, quizID uint, filename string, reader io.Reader, identity *models.Identity) (summary *models.ImportSummary, err error) {
	started := time.Now()
	defer func() {
		s.opLog.LogOperation(ctx, "import_questions", userIDOf(identity), quizID, "quiz", time.Since(started), err)
	}()

	if err := requireAuthor(identity, quizID, "import_questions"); err != nil {
		return nil, err
	}

	rows, err := readSheet(filename, reader)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, validator.NewValidationErrors("file", "must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{colQuestionText, colMarks, colCorrectOption, colOptionPrefix + "1", colOptionPrefix + "2"} {
		if _, ok := headerMap[col]; !ok {
			return nil, validator.NewValidationErrors("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	summary = &models.ImportSummary{TotalRows: len(rows) - 1}
	var questions []*models.Question

	for i, row := range rows[1:] {
		question, rowErrors := s.parseImportRow(quizID, row, headerMap, i+2)
		switch {
		case len(rowErrors) > 0:
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.SkippedCount++
		case question == nil:
			summary.SkippedCount++
		default:
			questions = append(questions, question)
		}
	}

	if len(questions) > 0 {
		err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
			if err := s.insertQuestions(ctx, tx, quizID, questions); err != nil {
				return err
			}
			return s.repo.Audit().Create(ctx, tx, newAuditEntry(models.AuditQuestionImported, identity, "quiz", quizID,
				fmt.Sprintf("Imported %d questions from %s", len(questions), filepath.Base(filename)),
				map[string]interface{}{"total_rows": summary.TotalRows, "skipped": summary.SkippedCount}))
		})
		if err != nil {
			return nil, err
		}
		s.repo.Quiz().InvalidateCache(ctx, quizID)
	}

	summary.SuccessCount = len(questions)
	for _, q := range questions {
		summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
	}

	s.logger.Info("Question import completed",
		"quiz_id", quizID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"skipped_count", summary.SkippedCount)

	return summary, nil
}

func readSheet(filename string, reader io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		csvReader := csv.NewReader(reader)
		csvReader.TrimLeadingSpace = true
		csvReader.FieldsPerRecord = -1
		records, err := csvReader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return records, nil
	case ".xlsx":
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, validator.NewValidationErrors("file", "Excel file has no sheets", nil)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read Excel rows: %w", err)
		}
		return rows, nil
	default:
		return nil, validator.NewValidationErrors("file", "unsupported file format", filepath.Ext(filename))
	}
}

func cellValue(row []string, headerMap map[string]int, column string) string {
	idx, ok := headerMap[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseImportRow returns nil, nil for a blank row.
func (s *quizService) parseImportRow(quizID uint, row []string, headerMap map[string]int, rowNum int) (*models.Question, []models.ImportValidationError) {
	text := cellValue(row, headerMap, colQuestionText)
	marksRaw := cellValue(row, headerMap, colMarks)
	correctRaw := cellValue(row, headerMap, colCorrectOption)

	options := make([]string, 0, validator.MaxOptionsPerQuestion)
	for i := 1; i <= validator.MaxOptionsPerQuestion; i++ {
		options = append(options, cellValue(row, headerMap, fmt.Sprintf("%s%d", colOptionPrefix, i)))
	}

	if text == "" && marksRaw == "" && correctRaw == "" && strings.Join(options, "") == "" {
		return nil, nil
	}

	var errs []models.ImportValidationError
	rowError := func(column, message, value string) {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Column: column, Message: message, Value: value})
	}

	if text == "" {
		rowError(colQuestionText, "question text is required", text)
	}

	marks, err := decimal.NewFromString(marksRaw)
	if err != nil {
		rowError(colMarks, "marks must be a number", marksRaw)
	} else if err := s.validator.Question().ValidateMarks(marks); err != nil {
		rowError(colMarks, err.Error(), marksRaw)
	}

	correct, err := strconv.Atoi(correctRaw)
	if err != nil || correct < 1 || correct > validator.MaxOptionsPerQuestion {
		rowError(colCorrectOption, fmt.Sprintf("must be a number between 1 and %d", validator.MaxOptionsPerQuestion), correctRaw)
	} else if err := s.validator.Question().ValidateOptions(options, correct-1); err != nil {
		rowError(colCorrectOption, err.Error(), correctRaw)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return buildQuestion(quizID, text, marks, options, correct-1), nil
}
