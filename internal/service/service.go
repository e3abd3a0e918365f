package service

import (
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/repository"
)

// Service aggregates every business service.
type Service struct {
	User    UserService
	Course  CourseService
	Session SessionService
	CheckIn CheckInService
	Report  ReportService
	Import  ImportService
}

// NewService builds the aggregate.
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) (*Service, error) {
	report, err := NewReportService(&cfg.Report, repo, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		User:    NewUserService(repo, logger),
		Course:  NewCourseService(repo, logger),
		Session: NewSessionService(cfg, repo, logger),
		CheckIn: NewCheckInService(&cfg.CheckIn, repo, logger),
		Report:  report,
		Import:  NewImportService(repo, logger),
	}, nil
}
