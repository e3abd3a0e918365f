package handler

import (
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/service"
)

// Handler aggregates every HTTP handler group.
type Handler struct {
	User    *UserHandler
	Course  *CourseHandler
	Session *SessionHandler
	CheckIn *CheckInHandler
	Report  *ReportHandler
	Import  *ImportHandler
}

// NewHandler builds the aggregate.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		User:    NewUserHandler(svc.User, logger),
		Course:  NewCourseHandler(svc.Course, logger),
		Session: NewSessionHandler(svc.Session, logger),
		CheckIn: NewCheckInHandler(svc.CheckIn, logger),
		Report:  NewReportHandler(svc.Report, logger),
		Import:  NewImportHandler(svc.Import, logger),
	}
}
