package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/service"
)

type stubUserService struct {
	user *dto.UserResponse
	err  error
}

func (s *stubUserService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	return s.user, s.err
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	return s.user, s.err
}

func (s *stubUserService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	return nil, 0, s.err
}

func (s *stubUserService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	return s.user, s.err
}

func (s *stubUserService) ResolveIdentity(ctx context.Context, email string) (*dto.UserResponse, error) {
	return s.user, s.err
}

func (s *stubUserService) EnsureAdmins(ctx context.Context, emails []string) error {
	return s.err
}

func identityRouter(users service.UserService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{Identity(users, zap.NewNop())}
	if len(roles) > 0 {
		chain = append(chain, RoleAuth(roles...))
	}
	group := r.Group("", chain...)
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextEmail), "role": c.GetString(ContextRole)})
	})
	return r
}

func TestIdentityMissingHeader(t *testing.T) {
	r := identityRouter(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestIdentityUnknownAccount(t *testing.T) {
	r := identityRouter(&stubUserService{err: service.ErrUserNotFound})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Request-Email", "stranger@hua.gr")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestIdentityResolvesProxyHeaders(t *testing.T) {
	stub := &stubUserService{user: &dto.UserResponse{ID: "u1", Email: "jane@hua.gr", Role: "instructor"}}

	for _, header := range []string{"X-Auth-Request-Email", "X-Forwarded-Email", "X-Email"} {
		r := identityRouter(stub)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(header, "jane@hua.gr")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", header, w.Code)
		}
	}
}

func TestRoleAuthForbidsOtherRoles(t *testing.T) {
	stub := &stubUserService{user: &dto.UserResponse{ID: "u1", Email: "jane@hua.gr", Role: "instructor"}}
	r := identityRouter(stub, "admin")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Request-Email", "jane@hua.gr")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestRoleAuthAllowsListedRole(t *testing.T) {
	stub := &stubUserService{user: &dto.UserResponse{ID: "u1", Email: "jane@hua.gr", Role: "instructor"}}
	r := identityRouter(stub, "admin", "instructor")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Request-Email", "jane@hua.gr")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
