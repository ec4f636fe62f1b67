package service

import (
	"context"
	"errors"
	"fmt"

	"iserve/internal/auth"
	"iserve/internal/db"
	"iserve/internal/model"

	"github.com/oklog/ulid/v2"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

type UserService struct {
	queries *db.Queries
	jwt     *auth.JWTConfig
}

func NewUserService(queries *db.Queries, jwt *auth.JWTConfig) *UserService {
	return &UserService{queries: queries, jwt: jwt}
}

// Login verifies credentials and returns the profile plus a signed token.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Issue(u.ID, model.Role(u.Role))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return dbUserToModel(u), token, nil
}

// Register creates a regular account and returns the profile. No token is
// returned here; the registration endpoints ship profile objects only and
// clients start a provisional session themselves.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	return s.register(ctx, username, password, model.RoleUser)
}

// RegisterAdmin creates an administrator account and returns the profile
// together with a signed token.
func (s *UserService) RegisterAdmin(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := s.register(ctx, username, password, model.RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	token, err := s.jwt.Issue(u.ID, model.RoleAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return u, token, nil
}

func (s *UserService) register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	if _, err := s.queries.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if err != db.ErrNotFound {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.queries.CreateUser(ctx, ulid.Make().String(), username, hash, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return dbUserToModel(u), nil
}

type UpdateProfileInput struct {
	Email  string
	Phone  string
	Avatar string
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return dbUserToModel(u), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, username string, input UpdateProfileInput) (*model.User, error) {
	u, err := s.queries.UpdateUserProfile(ctx, username, input.Email, input.Phone, input.Avatar)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return dbUserToModel(u), nil
}

func dbUserToModel(u db.User) *model.User {
	return &model.User{
		ID:        u.ID,
		Username:  u.Username,
		Role:      model.Role(u.Role),
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		CreatedAt: model.FormatTime(u.CreatedAt),
		UpdatedAt: model.FormatTime(u.UpdatedAt),
	}
}
