package dto

// CreateCourseRequest creates a course.
type CreateCourseRequest struct {
	Code  string `json:"code"  binding:"required,min=2,max=50"`
	Title string `json:"title" binding:"required,min=2,max=255"`
}

// UpdateCourseRequest updates the course title (the code is immutable).
type UpdateCourseRequest struct {
	Title string `json:"title" binding:"required,min=2,max=255"`
}

// AssignInstructorRequest links an instructor to a course.
type AssignInstructorRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// CourseResponse is the API projection of a course.
type CourseResponse struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Title       string         `json:"title"`
	Instructors []UserResponse `json:"instructors,omitempty"`
	CreatedAt   string         `json:"created_at"`
}
