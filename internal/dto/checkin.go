package dto

// SubmitCheckInRequest is the public check-in form payload.
type SubmitCheckInRequest struct {
	Token    string `json:"token"     binding:"required"`
	FullName string `json:"full_name" binding:"required,min=2,max=255"`
	Email    string `json:"email"     binding:"required,email"`
}

// CheckInResponse is returned for both fresh and duplicate submissions.
// Duplicate marks an idempotent resubmission: the stored record is the
// original one and no second row was created.
type CheckInResponse struct {
	ID           string `json:"id"`
	SessionID    string `json:"session_id"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	RecordedAt   string `json:"recorded_at"`
	Duplicate    bool   `json:"duplicate"`
}

// SessionPreviewResponse is what the public check-in form shows before
// the student submits.
type SessionPreviewResponse struct {
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expires_at"`
	EmailDomain string `json:"email_domain"`
}
