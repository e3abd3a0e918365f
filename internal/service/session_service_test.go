package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://attend.example.org"},
		CheckIn: config.CheckInConfig{
			EmailDomain:           "@hua.gr",
			DefaultSessionMinutes: 15,
			MaxSessionMinutes:     240,
		},
		Report: config.ReportConfig{Timezone: "Europe/Athens"},
	}
}

func TestOpenSessionUsesDefaultDuration(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	resp, err := svc.Open(context.Background(), &dto.OpenSessionRequest{CourseID: course.CourseID}, instructor.UserID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if resp.Status != model.SessionOpen {
		t.Errorf("status = %q, want open", resp.Status)
	}
	if len(resp.Token) != 32 || strings.Contains(resp.Token, "-") {
		t.Errorf("token = %q, want 32 hex chars", resp.Token)
	}
	if want := "https://attend.example.org/checkin?session=" + resp.Token; resp.CheckInURL != want {
		t.Errorf("check-in url = %q, want %q", resp.CheckInURL, want)
	}

	stored := store.sessions[resp.ID]
	if got := stored.ExpiresAt.Sub(stored.OpenedAt); got != 15*time.Minute {
		t.Errorf("window = %v, want 15m", got)
	}
}

func TestOpenSessionRejectsUnassignedInstructor(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Open(context.Background(), &dto.OpenSessionRequest{CourseID: course.CourseID}, instructor.UserID)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestOpenSessionUnknownCourse(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Open(context.Background(), &dto.OpenSessionRequest{CourseID: uuid.NewString()}, instructor.UserID)
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestOpenSessionDurationOverMax(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Open(context.Background(), &dto.OpenSessionRequest{
		CourseID:        course.CourseID,
		DurationMinutes: 241,
	}, instructor.UserID)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	first, err := svc.Close(context.Background(), session.SessionID, instructor.UserID)
	if err != nil {
		t.Fatalf("first Close: %v", err)
	}
	second, err := svc.Close(context.Background(), session.SessionID, instructor.UserID)
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if first.Status != model.SessionClosed || second.Status != model.SessionClosed {
		t.Errorf("statuses = %q, %q, want closed", first.Status, second.Status)
	}
	if first.ClosedAt != second.ClosedAt {
		t.Errorf("closed_at changed on repeat close: %q vs %q", first.ClosedAt, second.ClosedAt)
	}
}

func TestExtendOpenSession(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)
	originalExpiry := session.ExpiresAt

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Extend(context.Background(), session.SessionID, &dto.ExtendSessionRequest{ExtraMinutes: 10}, instructor.UserID)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if want := originalExpiry.Add(10 * time.Minute); !store.sessions[session.SessionID].ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", store.sessions[session.SessionID].ExpiresAt, want)
	}
}

func TestExtendLapsedSessionRejected(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	// Window ended 15 minutes ago, never explicitly closed.
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC().Add(-30*time.Minute), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Extend(context.Background(), session.SessionID, &dto.ExtendSessionRequest{ExtraMinutes: 10}, instructor.UserID)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestExtendClosedSessionRejected(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)
	now := time.Now().UTC()
	session.Status = model.SessionClosed
	session.ClosedAt = &now

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	_, err := svc.Extend(context.Background(), session.SessionID, &dto.ExtendSessionRequest{ExtraMinutes: 10}, instructor.UserID)
	if !errors.Is(err, ErrSessionNotOpen) {
		t.Fatalf("err = %v, want ErrSessionNotOpen", err)
	}
}

// staleSessionReads serves a stale snapshot on the first GetByID and the
// live row afterwards, simulating a concurrent close between the
// ownership read and the lifecycle write.
type staleSessionReads struct {
	repository.SessionRepository
	snapshot *model.Session
	served   bool
}

func (r *staleSessionReads) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if !r.served {
		r.served = true
		stale := *r.snapshot
		return &stale, nil
	}
	return r.SessionRepository.GetByID(ctx, id)
}

func TestExtendDoesNotResurrectConcurrentlyClosedSession(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)

	openSnapshot := *session
	closedAt := time.Now().UTC()
	session.Status = model.SessionClosed
	session.ClosedAt = &closedAt
	originalExpiry := session.ExpiresAt

	repo := newTestRepo(store)
	repo.Session = &staleSessionReads{SessionRepository: repo.Session, snapshot: &openSnapshot}
	svc := NewSessionService(testConfig(), repo, zap.NewNop())

	_, err := svc.Extend(context.Background(), session.SessionID, &dto.ExtendSessionRequest{ExtraMinutes: 10}, instructor.UserID)
	if !errors.Is(err, ErrSessionNotOpen) {
		t.Fatalf("err = %v, want ErrSessionNotOpen", err)
	}
	if store.sessions[session.SessionID].Status != model.SessionClosed {
		t.Errorf("stored status = %q, closed session was reopened", store.sessions[session.SessionID].Status)
	}
	if !store.sessions[session.SessionID].ExpiresAt.Equal(originalExpiry) {
		t.Errorf("expires_at moved to %v on a closed session", store.sessions[session.SessionID].ExpiresAt)
	}
}

func TestCloseDoesNotRewriteConcurrentClose(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)

	openSnapshot := *session
	closedAt := time.Now().UTC().Add(-time.Minute)
	session.Status = model.SessionClosed
	session.ClosedAt = &closedAt

	repo := newTestRepo(store)
	repo.Session = &staleSessionReads{SessionRepository: repo.Session, snapshot: &openSnapshot}
	svc := NewSessionService(testConfig(), repo, zap.NewNop())

	resp, err := svc.Close(context.Background(), session.SessionID, instructor.UserID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if resp.Status != model.SessionClosed {
		t.Errorf("status = %q, want closed", resp.Status)
	}
	if !store.sessions[session.SessionID].ClosedAt.Equal(closedAt) {
		t.Errorf("closed_at rewritten to %v", store.sessions[session.SessionID].ClosedAt)
	}
}

func TestGetByIDRejectsUnassignedInstructor(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	other := store.addUser("Maria K", "maria@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, owner.UserID)
	session := store.addSession(course.CourseID, owner.UserID, time.Now().UTC(), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	if _, err := svc.GetByID(context.Background(), session.SessionID, other.UserID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	// Empty scope is the admin path and sees everything.
	if _, err := svc.GetByID(context.Background(), session.SessionID, ""); err != nil {
		t.Fatalf("admin GetByID: %v", err)
	}
}

func TestListRejectsUnassignedInstructor(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	other := store.addUser("Maria K", "maria@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, owner.UserID)
	store.addSession(course.CourseID, owner.UserID, time.Now().UTC(), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	req := &dto.SessionListRequest{CourseID: course.CourseID}
	if _, err := svc.List(context.Background(), req, other.UserID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	sessions, err := svc.List(context.Background(), req, "")
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("admin sees %d sessions, want 1", len(sessions))
	}
}

func TestStatusOfProjectsExpiry(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	session := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC().Add(-time.Hour), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	status, err := svc.StatusOf(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("StatusOf: %v", err)
	}
	if status != model.SessionExpired {
		t.Errorf("status = %q, want expired", status)
	}
	if store.sessions[session.SessionID].Status != model.SessionOpen {
		t.Errorf("stored status mutated to %q", store.sessions[session.SessionID].Status)
	}
}

func TestListActiveSkipsLapsedSessions(t *testing.T) {
	store := newMemStore()
	instructor := store.addUser("Nikos P", "nikos@hua.gr", model.RoleInstructor)
	course := store.addCourse("EFP01", "Computer Networks")
	store.assign(course.CourseID, instructor.UserID)
	live := store.addSession(course.CourseID, instructor.UserID, time.Now().UTC(), 15*time.Minute)
	store.addSession(course.CourseID, instructor.UserID, time.Now().UTC().Add(-time.Hour), 15*time.Minute)

	svc := NewSessionService(testConfig(), newTestRepo(store), zap.NewNop())

	sessions, err := svc.List(context.Background(), &dto.SessionListRequest{CourseID: course.CourseID, ActiveOnly: true}, instructor.UserID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != live.SessionID {
		t.Fatalf("got %d sessions, want only the live one", len(sessions))
	}
}
