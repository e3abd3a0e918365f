package model

// Course maps to the courses table. Code is human-assigned and unique;
// the title is the only mutable attribute.
type Course struct {
	CourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code     string `gorm:"type:varchar(50);not null;unique"               json:"code"`
	Title    string `gorm:"type:varchar(255);not null"                     json:"title"`
	BaseModel

	Instructors []CourseInstructor `gorm:"foreignKey:CourseID;references:CourseID" json:"-"`
}

// TableName implements the GORM table-name convention.
func (Course) TableName() string { return "courses" }

// CourseInstructor links an instructor to a course (many-to-many).
type CourseInstructor struct {
	CourseInstructorID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_instructor_id"`
	CourseID           string `gorm:"type:uuid;not null;uniqueIndex:uq_course_instructor" json:"course_id"`
	UserID             string `gorm:"type:uuid;not null;uniqueIndex:uq_course_instructor" json:"user_id"`
	BaseModel

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	User   *User   `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
}

// TableName implements the GORM table-name convention.
func (CourseInstructor) TableName() string { return "course_instructors" }
