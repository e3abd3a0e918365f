package dto

// ImportRowError reports a rejected import row with its 1-based line
// number in the uploaded file.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResponse summarizes a bulk course/instructor import.
type ImportResponse struct {
	Total              int              `json:"total"`
	CoursesCreated     int              `json:"courses_created"`
	InstructorsCreated int              `json:"instructors_created"`
	AssignmentsCreated int              `json:"assignments_created"`
	Failed             int              `json:"failed"`
	Errors             []ImportRowError `json:"errors,omitempty"`
}
