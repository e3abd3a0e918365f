package dto

// OpenSessionRequest opens a check-in session for a course. A zero
// duration falls back to the configured default.
type OpenSessionRequest struct {
	CourseID        string `json:"course_id"        binding:"required,uuid"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
}

// ExtendSessionRequest pushes the expiry of an open session forward.
type ExtendSessionRequest struct {
	ExtraMinutes int `json:"extra_minutes" binding:"required,min=1"`
}

// SessionListRequest filters the session listing.
type SessionListRequest struct {
	CourseID   string `form:"course_id" binding:"required,uuid"`
	ActiveOnly bool   `form:"active_only"`
}

// SessionResponse is the API projection of a session. Status is the
// derived state (open/closed/expired) at response time.
type SessionResponse struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	CourseCode   string `json:"course_code,omitempty"`
	CourseTitle  string `json:"course_title,omitempty"`
	Token        string `json:"token"`
	Status       string `json:"status"`
	OpenedAt     string `json:"opened_at"`
	ExpiresAt    string `json:"expires_at"`
	ClosedAt     string `json:"closed_at,omitempty"`
	CheckInURL   string `json:"checkin_url"`
	CheckInCount int64  `json:"checkin_count"`
}
