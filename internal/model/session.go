package model

import "time"

// Stored session states. "expired" is never stored: it is derived at read
// time from an open session whose expiry has passed, so no background
// sweeper is needed.
const (
	SessionOpen    = "open"
	SessionClosed  = "closed"
	SessionExpired = "expired" // derived only
)

// Session maps to the sessions table: one time-boxed check-in window for a
// course, identified by an unguessable token embedded in the public link.
type Session struct {
	SessionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	CourseID  string     `gorm:"type:uuid;not null"                             json:"course_id"`
	OpenedBy  string     `gorm:"type:uuid;not null"                             json:"opened_by"`
	Token     string     `gorm:"type:varchar(64);not null;unique"               json:"token"`
	Status    string     `gorm:"type:varchar(10);not null;default:'open'"       json:"status"`
	OpenedAt  time.Time  `gorm:"not null"                                       json:"opened_at"`
	ExpiresAt time.Time  `gorm:"not null"                                       json:"expires_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	BaseModel

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	Opener *User   `gorm:"foreignKey:OpenedBy;references:UserID"   json:"opener,omitempty"`
}

// TableName implements the GORM table-name convention.
func (Session) TableName() string { return "sessions" }

// DerivedStatus projects the effective state at instant now.
func (s *Session) DerivedStatus(now time.Time) string {
	if s.Status == SessionClosed {
		return SessionClosed
	}
	if !now.Before(s.ExpiresAt) {
		return SessionExpired
	}
	return SessionOpen
}

// AcceptsCheckIns reports whether a submission at instant now is inside
// the session window.
func (s *Session) AcceptsCheckIns(now time.Time) bool {
	return s.DerivedStatus(now) == SessionOpen
}
