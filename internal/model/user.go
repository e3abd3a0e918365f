package model

// User roles. Students are anonymous submitters and never become users.
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

// User maps to the users table. Accounts are deactivated, never deleted.
type User struct {
	UserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string `gorm:"type:varchar(255);not null;unique"              json:"email"`
	Role   string `gorm:"type:varchar(20);not null"                      json:"role"`
	Active bool   `gorm:"not null;default:true"                          json:"active"`
	BaseModel

	Teaches []CourseInstructor `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName implements the GORM table-name convention.
func (User) TableName() string { return "users" }
