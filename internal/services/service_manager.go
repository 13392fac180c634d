package services

import (
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// ServiceManager hands the HTTP layer its services.
type ServiceManager interface {
	Attempt() AttemptService
	Quiz() QuizService
	Report() ReportService
}

type serviceManager struct {
	attempt AttemptService
	quiz    QuizService
	report  ReportService
}

func NewServiceManager(
	repo repositories.Repository,
	locker cache.AttemptLocker,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) ServiceManager {
	return &serviceManager{
		attempt: NewAttemptService(repo, locker, publisher, logger),
		quiz:    NewQuizService(repo, publisher, v, logger),
		report:  NewReportService(repo, logger),
	}
}

func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Report() ReportService   { return m.report }
