package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every data-access interface.
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Course     CourseRepository
	Session    SessionRepository
	Attendance AttendanceRepository
}

// NewRepository builds the aggregate backed by db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Course:     NewCourseRepo(db),
		Session:    NewSessionRepo(db),
		Attendance: NewAttendanceRepo(db),
	}
}

// BeginTx opens a transaction on the underlying connection.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns a Repository whose members run inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}
