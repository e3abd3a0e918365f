package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseCodeExists   = errors.New("a course with this code already exists")
	ErrNotInstructor      = errors.New("user is not an instructor")
	ErrAlreadyAssigned    = errors.New("instructor is already assigned to this course")
	ErrAssignmentNotFound = errors.New("instructor is not assigned to this course")
)

// CourseService manages courses and instructor assignments.
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, page *dto.PaginationRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)

	Assign(ctx context.Context, courseID, userID string) error
	Unassign(ctx context.Context, courseID, userID string) error
	ListMine(ctx context.Context, instructorID string) ([]dto.CourseResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService creates the CourseService.
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	code := strings.TrimSpace(req.Code)

	if _, err := s.repo.Course.GetByCode(ctx, code); err == nil {
		return nil, ErrCourseCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	course := &model.Course{
		Code:  code,
		Title: strings.TrimSpace(req.Title),
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("create course failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course, nil), nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("get course failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	instructors, err := s.repo.Course.ListInstructors(ctx, id)
	if err != nil {
		return nil, err
	}

	return toCourseResponse(course, instructors), nil
}

func (s *courseService) List(ctx context.Context, page *dto.PaginationRequest) ([]dto.CourseResponse, int64, error) {
	courses, total, err := s.repo.Course.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("list courses failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i], nil))
	}
	return result, total, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	course.Title = strings.TrimSpace(req.Title)

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("update course failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course, nil), nil
}

func (s *courseService) Assign(ctx context.Context, courseID, userID string) error {
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role != model.RoleInstructor {
		return ErrNotInstructor
	}

	if err := s.repo.Course.Assign(ctx, courseID, userID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyAssigned
		}
		s.logger.Error("assign instructor failed",
			zap.String("course_id", courseID), zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) Unassign(ctx context.Context, courseID, userID string) error {
	assigned, err := s.repo.Course.IsAssigned(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrAssignmentNotFound
	}
	return s.repo.Course.Unassign(ctx, courseID, userID)
}

func (s *courseService) ListMine(ctx context.Context, instructorID string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByInstructor(ctx, instructorID)
	if err != nil {
		s.logger.Error("list instructor courses failed",
			zap.String("user_id", instructorID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i], nil))
	}
	return result, nil
}

func toCourseResponse(course *model.Course, instructors []model.User) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:        course.CourseID,
		Code:      course.Code,
		Title:     course.Title,
		CreatedAt: course.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for i := range instructors {
		resp.Instructors = append(resp.Instructors, *toUserResponse(&instructors[i]))
	}
	return resp
}
