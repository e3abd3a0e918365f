package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/model"
)

// ReportFilters narrows the attendance join used by reporting. A nil/empty
// CourseIDs means all courses; InstructorID restricts to assigned courses.
// From is inclusive, To exclusive (callers pass day boundaries).
type ReportFilters struct {
	CourseIDs    []string
	InstructorID string
	From         time.Time
	To           time.Time
}

// ReportRecord is one raw check-in row from the attendance→session→course
// join, in UTC as stored.
type ReportRecord struct {
	CourseCode   string
	CourseTitle  string
	SessionID    string
	SessionStart time.Time
	StudentName  string
	StudentEmail string
	CheckInAt    time.Time
}

// AttendanceRepository is the attendance data-access interface.
type AttendanceRepository interface {
	// Insert stores a check-in. A duplicate (session, email) pair fails
	// with gorm.ErrDuplicatedKey via the DB unique constraint.
	Insert(ctx context.Context, att *model.Attendance) error
	GetBySessionAndEmail(ctx context.Context, sessionID, email string) (*model.Attendance, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	ReportRecords(ctx context.Context, filters *ReportFilters) ([]ReportRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates the GORM-backed AttendanceRepository.
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Insert(ctx context.Context, att *model.Attendance) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *attendanceRepo) GetBySessionAndEmail(ctx context.Context, sessionID, email string) (*model.Attendance, error) {
	var att model.Attendance
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND student_email = ?", sessionID, email).
		First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *attendanceRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *attendanceRepo) ReportRecords(ctx context.Context, filters *ReportFilters) ([]ReportRecord, error) {
	db := r.db.WithContext(ctx).
		Table("attendance").
		Select(`courses.code AS course_code,
			courses.title AS course_title,
			sessions.session_id AS session_id,
			sessions.opened_at AS session_start,
			attendance.student_name,
			attendance.student_email,
			attendance.created_at AS check_in_at`).
		Joins("JOIN sessions ON sessions.session_id = attendance.session_id").
		Joins("JOIN courses ON courses.course_id = sessions.course_id")

	if filters.InstructorID != "" {
		db = db.Joins("JOIN course_instructors ci ON ci.course_id = courses.course_id").
			Where("ci.user_id = ?", filters.InstructorID)
	}
	if len(filters.CourseIDs) > 0 {
		db = db.Where("courses.course_id IN ?", filters.CourseIDs)
	}
	if !filters.From.IsZero() {
		db = db.Where("attendance.created_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		db = db.Where("attendance.created_at < ?", filters.To)
	}

	var records []ReportRecord
	if err := db.Order("attendance.created_at ASC").Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
