package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
	"github.com/gfragi/attendance-app/pkg/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotAuthorized   = errors.New("instructor is not assigned to this course")
	ErrInvalidDuration = errors.New("session duration must be positive")
	ErrSessionNotOpen  = errors.New("session is closed")
	// ErrSessionExpired also covers the extend-after-lapse case: a session
	// whose expiry passed is not resurrected even if it was never
	// explicitly closed.
	ErrSessionExpired = errors.New("session has expired")
)

// SessionService drives the session lifecycle. Read operations take an
// instructorID scope: empty means unrestricted (admin callers), anything
// else must be assigned to the session's course.
type SessionService interface {
	Open(ctx context.Context, req *dto.OpenSessionRequest, instructorID string) (*dto.SessionResponse, error)
	Close(ctx context.Context, sessionID, instructorID string) (*dto.SessionResponse, error)
	Extend(ctx context.Context, sessionID string, req *dto.ExtendSessionRequest, instructorID string) (*dto.SessionResponse, error)
	GetByID(ctx context.Context, sessionID, instructorID string) (*dto.SessionResponse, error)
	StatusOf(ctx context.Context, sessionID string) (string, error)
	List(ctx context.Context, req *dto.SessionListRequest, instructorID string) ([]dto.SessionResponse, error)

	// CheckInURL builds the public link embedded in the QR code.
	CheckInURL(token string) string
}

type sessionService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSessionService creates the SessionService.
func NewSessionService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SessionService {
	return &sessionService{cfg: cfg, repo: repo, logger: logger}
}

func (s *sessionService) Open(ctx context.Context, req *dto.OpenSessionRequest, instructorID string) (*dto.SessionResponse, error) {
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.CheckIn.DefaultSessionMinutes
	}
	if duration <= 0 || duration > s.cfg.CheckIn.MaxSessionMinutes {
		return nil, ErrInvalidDuration
	}

	if _, err := s.repo.Course.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	assigned, err := s.repo.Course.IsAssigned(ctx, req.CourseID, instructorID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrNotAuthorized
	}

	now := time.Now().UTC()
	session := &model.Session{
		CourseID:  req.CourseID,
		OpenedBy:  instructorID,
		Token:     newSessionToken(),
		Status:    model.SessionOpen,
		OpenedAt:  now,
		ExpiresAt: now.Add(time.Duration(duration) * time.Minute),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("open session failed",
			zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	metrics.SessionsOpened.Inc()
	s.logger.Info("session opened",
		zap.String("session_id", session.SessionID),
		zap.String("course_id", req.CourseID),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return s.toSessionResponse(ctx, session), nil
}

// Close is idempotent: closing an already-closed session is a no-op.
// The state check runs inside the conditional UPDATE, so racing closes
// never rewrite closed_at.
func (s *sessionService) Close(ctx context.Context, sessionID, instructorID string) (*dto.SessionResponse, error) {
	if _, err := s.getOwnedSession(ctx, sessionID, instructorID); err != nil {
		return nil, err
	}

	changed, err := s.repo.Session.CloseIfOpen(ctx, sessionID, time.Now().UTC())
	if err != nil {
		s.logger.Error("close session failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if changed > 0 {
		s.logger.Info("session closed", zap.String("session_id", sessionID))
	}

	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toSessionResponse(ctx, session), nil
}

func (s *sessionService) Extend(ctx context.Context, sessionID string, req *dto.ExtendSessionRequest, instructorID string) (*dto.SessionResponse, error) {
	if req.ExtraMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	if _, err := s.getOwnedSession(ctx, sessionID, instructorID); err != nil {
		return nil, err
	}

	// The open-and-not-lapsed check lives inside the UPDATE: a session
	// closed or lapsed between our read and this write stays untouched.
	now := time.Now().UTC()
	changed, err := s.repo.Session.ExtendIfOpen(ctx, sessionID, req.ExtraMinutes, now)
	if err != nil {
		s.logger.Error("extend session failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if changed == 0 {
		if session.Status == model.SessionClosed {
			return nil, ErrSessionNotOpen
		}
		return nil, ErrSessionExpired
	}

	s.logger.Info("session extended",
		zap.String("session_id", sessionID),
		zap.Int("extra_minutes", req.ExtraMinutes),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return s.toSessionResponse(ctx, session), nil
}

func (s *sessionService) GetByID(ctx context.Context, sessionID, instructorID string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := s.checkScope(ctx, session.CourseID, instructorID); err != nil {
		return nil, err
	}
	return s.toSessionResponse(ctx, session), nil
}

func (s *sessionService) StatusOf(ctx context.Context, sessionID string) (string, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return session.DerivedStatus(time.Now().UTC()), nil
}

func (s *sessionService) List(ctx context.Context, req *dto.SessionListRequest, instructorID string) ([]dto.SessionResponse, error) {
	if err := s.checkScope(ctx, req.CourseID, instructorID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.Session.ListByCourse(ctx, req.CourseID, req.ActiveOnly)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		if req.ActiveOnly && !sessions[i].AcceptsCheckIns(now) {
			continue
		}
		result = append(result, *s.toSessionResponse(ctx, &sessions[i]))
	}
	return result, nil
}

func (s *sessionService) CheckInURL(token string) string {
	return fmt.Sprintf("%s/checkin?session=%s",
		strings.TrimRight(s.cfg.Server.BaseURL, "/"), token)
}

// checkScope rejects instructors reading sessions of courses they are
// not assigned to. An empty instructorID (admin) passes unrestricted.
func (s *sessionService) checkScope(ctx context.Context, courseID, instructorID string) error {
	if instructorID == "" {
		return nil
	}
	assigned, err := s.repo.Course.IsAssigned(ctx, courseID, instructorID)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrNotAuthorized
	}
	return nil
}

// getOwnedSession loads a session and verifies the caller may manage it:
// the instructor must be assigned to the session's course.
func (s *sessionService) getOwnedSession(ctx context.Context, sessionID, instructorID string) (*model.Session, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	assigned, err := s.repo.Course.IsAssigned(ctx, session.CourseID, instructorID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrNotAuthorized
	}
	return session, nil
}

// newSessionToken returns a 32-char hex token backed by 128 bits of
// crypto randomness.
func newSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *sessionService) toSessionResponse(ctx context.Context, session *model.Session) *dto.SessionResponse {
	count, err := s.repo.Attendance.CountBySession(ctx, session.SessionID)
	if err != nil {
		// The count is cosmetic on this projection; log and keep going.
		s.logger.Warn("count check-ins failed", zap.String("session_id", session.SessionID), zap.Error(err))
	}

	resp := &dto.SessionResponse{
		ID:           session.SessionID,
		CourseID:     session.CourseID,
		Token:        session.Token,
		Status:       session.DerivedStatus(time.Now().UTC()),
		OpenedAt:     session.OpenedAt.UTC().Format(time.RFC3339),
		ExpiresAt:    session.ExpiresAt.UTC().Format(time.RFC3339),
		CheckInURL:   s.CheckInURL(session.Token),
		CheckInCount: count,
	}
	if session.ClosedAt != nil {
		resp.ClosedAt = session.ClosedAt.UTC().Format(time.RFC3339)
	}
	if session.Course != nil {
		resp.CourseCode = session.Course.Code
		resp.CourseTitle = session.Course.Title
	}
	return resp
}
