package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
)

// memStore backs the in-memory repository mocks. Attendance inserts
// mimic the DB unique constraint by returning gorm.ErrDuplicatedKey for
// a repeated (session, email) pair.
type memStore struct {
	users       map[string]*model.User
	courses     map[string]*model.Course
	assignments map[string]map[string]bool // courseID -> userID
	sessions    map[string]*model.Session
	attendance  map[string]*model.Attendance // sessionID+"|"+email
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*model.User),
		courses:     make(map[string]*model.Course),
		assignments: make(map[string]map[string]bool),
		sessions:    make(map[string]*model.Session),
		attendance:  make(map[string]*model.Attendance),
	}
}

func newTestRepo(store *memStore) *repository.Repository {
	return &repository.Repository{
		User:       &mockUserRepo{store},
		Course:     &mockCourseRepo{store},
		Session:    &mockSessionRepo{store},
		Attendance: &mockAttendanceRepo{store},
	}
}

// Fixture helpers.

func (m *memStore) addUser(name, email, role string) *model.User {
	u := &model.User{UserID: uuid.NewString(), Name: name, Email: email, Role: role, Active: true}
	m.users[u.UserID] = u
	return u
}

func (m *memStore) addCourse(code, title string) *model.Course {
	c := &model.Course{CourseID: uuid.NewString(), Code: code, Title: title}
	m.courses[c.CourseID] = c
	return c
}

func (m *memStore) assign(courseID, userID string) {
	if m.assignments[courseID] == nil {
		m.assignments[courseID] = make(map[string]bool)
	}
	m.assignments[courseID][userID] = true
}

func (m *memStore) addSession(courseID, openedBy string, openedAt time.Time, duration time.Duration) *model.Session {
	s := &model.Session{
		SessionID: uuid.NewString(),
		CourseID:  courseID,
		OpenedBy:  openedBy,
		Token:     uuid.NewString(),
		Status:    model.SessionOpen,
		OpenedAt:  openedAt,
		ExpiresAt: openedAt.Add(duration),
		Course:    m.courses[courseID],
	}
	m.sessions[s.SessionID] = s
	return s
}

func (m *memStore) addCheckIn(sessionID, name, email string, at time.Time) *model.Attendance {
	a := &model.Attendance{
		AttendanceID: uuid.NewString(),
		SessionID:    sessionID,
		StudentName:  name,
		StudentEmail: email,
		CreatedAt:    at,
	}
	m.attendance[sessionID+"|"+email] = a
	return a
}

// mockUserRepo

type mockUserRepo struct{ s *memStore }

func (r *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	r.s.users[user.UserID] = user
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	r.s.users[user.UserID] = user
	return nil
}

func (r *mockUserRepo) List(ctx context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	for _, u := range r.s.users {
		if role == "" || u.Role == role {
			users = append(users, *u)
		}
	}
	return users, int64(len(users)), nil
}

// mockCourseRepo

type mockCourseRepo struct{ s *memStore }

func (r *mockCourseRepo) Create(ctx context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = uuid.NewString()
	}
	r.s.courses[course.CourseID] = course
	return nil
}

func (r *mockCourseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	if c, ok := r.s.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	for _, c := range r.s.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseRepo) Update(ctx context.Context, course *model.Course) error {
	r.s.courses[course.CourseID] = course
	return nil
}

func (r *mockCourseRepo) List(ctx context.Context, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	for _, c := range r.s.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, int64(len(courses)), nil
}

func (r *mockCourseRepo) Assign(ctx context.Context, courseID, userID string) error {
	if r.s.assignments[courseID][userID] {
		return gorm.ErrDuplicatedKey
	}
	r.s.assign(courseID, userID)
	return nil
}

func (r *mockCourseRepo) Unassign(ctx context.Context, courseID, userID string) error {
	delete(r.s.assignments[courseID], userID)
	return nil
}

func (r *mockCourseRepo) IsAssigned(ctx context.Context, courseID, userID string) (bool, error) {
	return r.s.assignments[courseID][userID], nil
}

func (r *mockCourseRepo) ListByInstructor(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	for courseID, users := range r.s.assignments {
		if users[userID] {
			courses = append(courses, *r.s.courses[courseID])
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (r *mockCourseRepo) ListInstructors(ctx context.Context, courseID string) ([]model.User, error) {
	var users []model.User
	for userID := range r.s.assignments[courseID] {
		users = append(users, *r.s.users[userID])
	}
	return users, nil
}

// mockSessionRepo

type mockSessionRepo struct{ s *memStore }

func (r *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if session.SessionID == "" {
		session.SessionID = uuid.NewString()
	}
	session.Course = r.s.courses[session.CourseID]
	r.s.sessions[session.SessionID] = session
	return nil
}

func (r *mockSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if s, ok := r.s.sessions[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockSessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	for _, s := range r.s.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockSessionRepo) CloseIfOpen(ctx context.Context, id string, closedAt time.Time) (int64, error) {
	session, ok := r.s.sessions[id]
	if !ok || session.Status != model.SessionOpen {
		return 0, nil
	}
	session.Status = model.SessionClosed
	session.ClosedAt = &closedAt
	return 1, nil
}

func (r *mockSessionRepo) ExtendIfOpen(ctx context.Context, id string, extraMinutes int, now time.Time) (int64, error) {
	session, ok := r.s.sessions[id]
	if !ok || session.Status != model.SessionOpen || !now.Before(session.ExpiresAt) {
		return 0, nil
	}
	session.ExpiresAt = session.ExpiresAt.Add(time.Duration(extraMinutes) * time.Minute)
	return 1, nil
}

func (r *mockSessionRepo) ListByCourse(ctx context.Context, courseID string, openOnly bool) ([]model.Session, error) {
	var sessions []model.Session
	for _, s := range r.s.sessions {
		if courseID != "" && s.CourseID != courseID {
			continue
		}
		if openOnly && s.Status != model.SessionOpen {
			continue
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (r *mockSessionRepo) CountByCourse(ctx context.Context, filters *repository.ReportFilters) ([]repository.SessionCount, error) {
	counts := make(map[string]int)
	for _, s := range r.s.sessions {
		if !r.sessionMatches(s, filters) {
			continue
		}
		counts[r.s.courses[s.CourseID].Code]++
	}
	var result []repository.SessionCount
	for code, n := range counts {
		result = append(result, repository.SessionCount{CourseCode: code, Sessions: n})
	}
	return result, nil
}

func (r *mockSessionRepo) sessionMatches(s *model.Session, filters *repository.ReportFilters) bool {
	if filters.InstructorID != "" && !r.s.assignments[s.CourseID][filters.InstructorID] {
		return false
	}
	if len(filters.CourseIDs) > 0 && !containsID(filters.CourseIDs, s.CourseID) {
		return false
	}
	if !filters.From.IsZero() && s.OpenedAt.Before(filters.From) {
		return false
	}
	if !filters.To.IsZero() && !s.OpenedAt.Before(filters.To) {
		return false
	}
	return true
}

// mockAttendanceRepo

type mockAttendanceRepo struct{ s *memStore }

func (r *mockAttendanceRepo) Insert(ctx context.Context, att *model.Attendance) error {
	key := att.SessionID + "|" + att.StudentEmail
	if _, exists := r.s.attendance[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	if att.AttendanceID == "" {
		att.AttendanceID = uuid.NewString()
	}
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	r.s.attendance[key] = att
	return nil
}

func (r *mockAttendanceRepo) GetBySessionAndEmail(ctx context.Context, sessionID, email string) (*model.Attendance, error) {
	if a, ok := r.s.attendance[sessionID+"|"+email]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAttendanceRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	for _, a := range r.s.attendance {
		if a.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (r *mockAttendanceRepo) ReportRecords(ctx context.Context, filters *repository.ReportFilters) ([]repository.ReportRecord, error) {
	var records []repository.ReportRecord
	for _, a := range r.s.attendance {
		session := r.s.sessions[a.SessionID]
		if session == nil {
			continue
		}
		if filters.InstructorID != "" && !r.s.assignments[session.CourseID][filters.InstructorID] {
			continue
		}
		if len(filters.CourseIDs) > 0 && !containsID(filters.CourseIDs, session.CourseID) {
			continue
		}
		if !filters.From.IsZero() && a.CreatedAt.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && !a.CreatedAt.Before(filters.To) {
			continue
		}
		course := r.s.courses[session.CourseID]
		records = append(records, repository.ReportRecord{
			CourseCode:   course.Code,
			CourseTitle:  course.Title,
			SessionID:    session.SessionID,
			SessionStart: session.OpenedAt,
			StudentName:  a.StudentName,
			StudentEmail: a.StudentEmail,
			CheckInAt:    a.CreatedAt,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CheckInAt.Before(records[j].CheckInAt) })
	return records, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
