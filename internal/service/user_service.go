package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("a user with this email already exists")
)

// UserService manages admin and instructor accounts. Students never
// appear here: check-ins are anonymous records keyed by email only.
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)

	// ResolveIdentity maps a proxy-asserted email to an active account.
	// Unknown or deactivated accounts resolve to ErrUserNotFound.
	ResolveIdentity(ctx context.Context, email string) (*dto.UserResponse, error)

	// EnsureAdmins is the idempotent startup seed: every listed email
	// ends up existing with role=admin.
	EnsureAdmins(ctx context.Context, emails []string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates the UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := NormalizeEmail(req.Email)

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &model.User{
		Name:   strings.TrimSpace(req.Name),
		Email:  email,
		Role:   req.Role,
		Active: true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("create user failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("get user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Role, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("update user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) ResolveIdentity(ctx context.Context, email string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserNotFound
	}
	return toUserResponse(user), nil
}

func (s *userService) EnsureAdmins(ctx context.Context, emails []string) error {
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if email == "" {
			continue
		}

		user, err := s.repo.User.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if user.Role == model.RoleAdmin && user.Active {
				continue
			}
			user.Role = model.RoleAdmin
			user.Active = true
			if err := s.repo.User.Update(ctx, user); err != nil {
				return err
			}
			s.logger.Info("promoted bootstrap admin", zap.String("email", email))
		case errors.Is(err, gorm.ErrRecordNotFound):
			admin := &model.User{
				Name:   NameFromEmail(email),
				Email:  email,
				Role:   model.RoleAdmin,
				Active: true,
			}
			if err := s.repo.User.Create(ctx, admin); err != nil {
				return err
			}
			s.logger.Info("seeded bootstrap admin", zap.String("email", email))
		default:
			return err
		}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email before any comparison or
// storage; every uniqueness guarantee depends on this happening first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail derives a display name from the local part of an email,
// e.g. "jane.doe@hua.gr" → "Jane Doe".
func NameFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	for _, sep := range []string{".", "_", "-"} {
		local = strings.ReplaceAll(local, sep, " ")
	}
	words := strings.Fields(local)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return "User"
	}
	return strings.Join(words, " ")
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
