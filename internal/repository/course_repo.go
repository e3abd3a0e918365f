package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/model"
)

// CourseRepository is the courses and assignments data-access interface.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	List(ctx context.Context, offset, limit int) ([]model.Course, int64, error)

	Assign(ctx context.Context, courseID, userID string) error
	Unassign(ctx context.Context, courseID, userID string) error
	IsAssigned(ctx context.Context, courseID, userID string) (bool, error)
	ListByInstructor(ctx context.Context, userID string) ([]model.Course, error)
	ListInstructors(ctx context.Context, courseID string) ([]model.User, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates the GORM-backed CourseRepository.
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) List(ctx context.Context, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("code ASC").
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepo) Assign(ctx context.Context, courseID, userID string) error {
	link := model.CourseInstructor{CourseID: courseID, UserID: userID}
	return r.db.WithContext(ctx).Create(&link).Error
}

func (r *courseRepo) Unassign(ctx context.Context, courseID, userID string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Delete(&model.CourseInstructor{}).Error
}

func (r *courseRepo) IsAssigned(ctx context.Context, courseID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseInstructor{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepo) ListByInstructor(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Joins("JOIN course_instructors ci ON ci.course_id = courses.course_id").
		Where("ci.user_id = ?", userID).
		Order("courses.code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) ListInstructors(ctx context.Context, courseID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN course_instructors ci ON ci.user_id = users.user_id").
		Where("ci.course_id = ?", courseID).
		Order("users.name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
