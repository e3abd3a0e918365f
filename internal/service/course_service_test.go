package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
)

func TestAssignInstructor(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	admin := store.addUser("Admin A", "admin@hua.gr", model.RoleAdmin)
	course := store.addCourse("EFP01", "Computer Networks")

	svc := NewCourseService(newTestRepo(store), zap.NewNop())
	ctx := context.Background()

	if err := svc.Assign(ctx, course.CourseID, instructor.UserID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := svc.Assign(ctx, course.CourseID, instructor.UserID); !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("repeat assign: err = %v, want ErrAlreadyAssigned", err)
	}
	if err := svc.Assign(ctx, course.CourseID, admin.UserID); !errors.Is(err, ErrNotInstructor) {
		t.Errorf("admin assign: err = %v, want ErrNotInstructor", err)
	}
}

func TestCreateCourseDuplicateCode(t *testing.T) {
	store := newMemStore()
	store.addCourse("EFP01", "Computer Networks")

	svc := NewCourseService(newTestRepo(store), zap.NewNop())

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{Code: "EFP01", Title: "Other"})
	if !errors.Is(err, ErrCourseCodeExists) {
		t.Fatalf("err = %v, want ErrCourseCodeExists", err)
	}
}

func TestListMine(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	mine := store.addCourse("EFP01", "Computer Networks")
	store.addCourse("EFP02", "Databases")
	store.assign(mine.CourseID, instructor.UserID)

	svc := NewCourseService(newTestRepo(store), zap.NewNop())

	courses, err := svc.ListMine(context.Background(), instructor.UserID)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(courses) != 1 || courses[0].Code != "EFP01" {
		t.Fatalf("courses = %+v, want only EFP01", courses)
	}
}
