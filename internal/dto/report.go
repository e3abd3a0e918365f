package dto

// ReportRequest selects and buckets check-in data. Dates are inclusive
// calendar days ("2006-01-02") in the configured reporting timezone.
type ReportRequest struct {
	CourseIDs []string `form:"course_ids" binding:"omitempty,dive,uuid"`
	From      string   `form:"from"       binding:"required"`
	To        string   `form:"to"         binding:"required"`
	GroupBy   string   `form:"group_by"   binding:"omitempty,oneof=day week month"`
}

// ReportRow is one raw check-in joined with its session and course.
type ReportRow struct {
	CourseCode   string `json:"course_code"`
	CourseTitle  string `json:"course_title"`
	SessionID    string `json:"session_id"`
	SessionStart string `json:"session_start"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	CheckInAt    string `json:"check_in_at"`
}

// BucketCount aggregates one (time bucket, course) cell.
type BucketCount struct {
	Bucket         string `json:"bucket"`
	CourseCode     string `json:"course_code"`
	CourseTitle    string `json:"course_title"`
	CheckIns       int    `json:"check_ins"`
	UniqueStudents int    `json:"unique_students"`
	Sessions       int    `json:"sessions"`
}

// StudentRate is the per-student attendance rate for one course over the
// requested range.
type StudentRate struct {
	CourseCode       string  `json:"course_code"`
	StudentEmail     string  `json:"student_email"`
	AttendedSessions int     `json:"attended_sessions"`
	TotalSessions    int     `json:"total_sessions"`
	RatePercent      float64 `json:"rate_percent"`
}

// ReportResponse bundles the three report tables.
type ReportResponse struct {
	Rows    []ReportRow   `json:"rows"`
	Buckets []BucketCount `json:"buckets"`
	Rates   []StudentRate `json:"rates"`
}
