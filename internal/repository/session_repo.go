package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/model"
)

// SessionCount is the number of sessions a course held inside a range.
type SessionCount struct {
	CourseCode string
	Sessions   int
}

// SessionRepository is the sessions data-access interface.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	// CloseIfOpen marks the session closed only while it is still open,
	// so a concurrent close never rewrites closed_at. Returns the number
	// of rows changed.
	CloseIfOpen(ctx context.Context, id string, closedAt time.Time) (int64, error)
	// ExtendIfOpen pushes the expiry forward only while the session is
	// open and not yet lapsed at instant now. The state check runs
	// inside the UPDATE itself; zero rows changed means the window was
	// closed or lapsed by the time the write landed.
	ExtendIfOpen(ctx context.Context, id string, extraMinutes int, now time.Time) (int64, error)
	ListByCourse(ctx context.Context, courseID string, openOnly bool) ([]model.Session, error)
	// CountByCourse counts sessions opened inside the filter range,
	// grouped by course. Used as the rate denominator in reports.
	CountByCourse(ctx context.Context, filters *ReportFilters) ([]SessionCount, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo creates the GORM-backed SessionRepository.
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) CloseIfOpen(ctx context.Context, id string, closedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":     model.SessionClosed,
			"closed_at":  closedAt,
			"updated_at": closedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) ExtendIfOpen(ctx context.Context, id string, extraMinutes int, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND status = ? AND expires_at > ?", id, model.SessionOpen, now).
		Updates(map[string]interface{}{
			"expires_at": gorm.Expr("expires_at + make_interval(mins => ?)", extraMinutes),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) ListByCourse(ctx context.Context, courseID string, openOnly bool) ([]model.Session, error) {
	var sessions []model.Session
	db := r.db.WithContext(ctx).Preload("Course")
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if openOnly {
		db = db.Where("status = ?", model.SessionOpen)
	}
	err := db.Order("opened_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) CountByCourse(ctx context.Context, filters *ReportFilters) ([]SessionCount, error) {
	db := r.db.WithContext(ctx).
		Table("sessions").
		Select("courses.code AS course_code, COUNT(*) AS sessions").
		Joins("JOIN courses ON courses.course_id = sessions.course_id")

	if filters.InstructorID != "" {
		db = db.Joins("JOIN course_instructors ON course_instructors.course_id = sessions.course_id").
			Where("course_instructors.user_id = ?", filters.InstructorID)
	}
	if len(filters.CourseIDs) > 0 {
		db = db.Where("courses.course_id IN ?", filters.CourseIDs)
	}
	if !filters.From.IsZero() {
		db = db.Where("sessions.opened_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		db = db.Where("sessions.opened_at < ?", filters.To)
	}

	var counts []SessionCount
	if err := db.Group("courses.code").Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
