package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
	"github.com/gfragi/attendance-app/pkg/metrics"
)

var (
	ErrUnknownSession   = errors.New("unknown check-in token")
	ErrSessionClosed    = errors.New("session is closed")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
)

// CheckInService handles the public, unauthenticated side: previewing a
// session behind a token and recording student submissions.
type CheckInService interface {
	SessionPreview(ctx context.Context, token string) (*dto.SessionPreviewResponse, error)
	Submit(ctx context.Context, req *dto.SubmitCheckInRequest) (*dto.CheckInResponse, error)
}

type checkInService struct {
	// domain is the lowercased email suffix; submitted emails are
	// lowercased too, so the comparison is case-insensitive regardless
	// of how the config spells it.
	domain string
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCheckInService creates the CheckInService.
func NewCheckInService(cfg *config.CheckInConfig, repo *repository.Repository, logger *zap.Logger) CheckInService {
	return &checkInService{
		domain: NormalizeEmail(cfg.EmailDomain),
		repo:   repo,
		logger: logger,
	}
}

func (s *checkInService) SessionPreview(ctx context.Context, token string) (*dto.SessionPreviewResponse, error) {
	session, err := s.repo.Session.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	resp := &dto.SessionPreviewResponse{
		Status:      session.DerivedStatus(time.Now().UTC()),
		ExpiresAt:   session.ExpiresAt.UTC().Format(time.RFC3339),
		EmailDomain: s.domain,
	}
	if session.Course != nil {
		resp.CourseCode = session.Course.Code
		resp.CourseTitle = session.Course.Title
	}
	return resp, nil
}

// Submit records one attendance row. Validation order is fixed: token
// resolution, window state, email domain, then the insert itself. A
// resubmission for the same session and email is not an error: the
// original row is returned with Duplicate set.
func (s *checkInService) Submit(ctx context.Context, req *dto.SubmitCheckInRequest) (*dto.CheckInResponse, error) {
	session, err := s.repo.Session.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.CheckInsRejected.WithLabelValues("unknown_session").Inc()
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	now := time.Now().UTC()
	switch session.DerivedStatus(now) {
	case model.SessionClosed:
		metrics.CheckInsRejected.WithLabelValues("closed").Inc()
		return nil, ErrSessionClosed
	case model.SessionExpired:
		metrics.CheckInsRejected.WithLabelValues("expired").Inc()
		return nil, ErrSessionExpired
	}

	email := NormalizeEmail(req.Email)
	if !strings.HasSuffix(email, s.domain) {
		metrics.CheckInsRejected.WithLabelValues("domain").Inc()
		return nil, ErrDomainNotAllowed
	}

	record := &model.Attendance{
		SessionID:    session.SessionID,
		StudentName:  normalizeName(req.FullName),
		StudentEmail: email,
	}

	if err := s.repo.Attendance.Insert(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The unique constraint serializes concurrent resubmissions;
			// whichever row won is the record of truth.
			existing, getErr := s.repo.Attendance.GetBySessionAndEmail(ctx, session.SessionID, email)
			if getErr != nil {
				return nil, getErr
			}
			return toCheckInResponse(existing, true), nil
		}
		s.logger.Error("record check-in failed",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, err
	}

	metrics.CheckInsRecorded.Inc()
	s.logger.Info("check-in recorded",
		zap.String("session_id", session.SessionID),
		zap.String("student_email", email),
	)
	return toCheckInResponse(record, false), nil
}

// normalizeName collapses interior whitespace and trims the edges.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func toCheckInResponse(a *model.Attendance, duplicate bool) *dto.CheckInResponse {
	return &dto.CheckInResponse{
		ID:           a.AttendanceID,
		SessionID:    a.SessionID,
		StudentName:  a.StudentName,
		StudentEmail: a.StudentEmail,
		RecordedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		Duplicate:    duplicate,
	}
}
