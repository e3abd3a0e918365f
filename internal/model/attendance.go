package model

import "time"

// Attendance maps to the attendance table: one student check-in for one
// session. The (session_id, student_email) unique constraint is the
// serialization point for concurrent duplicate submissions.
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	SessionID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_session_email"  json:"session_id"`
	StudentName  string    `gorm:"type:varchar(255);not null"                     json:"student_name"`
	StudentEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_session_email" json:"student_email"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Session *Session `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
}

// TableName implements the GORM table-name convention.
func (Attendance) TableName() string { return "attendance" }
