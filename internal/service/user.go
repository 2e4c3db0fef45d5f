package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "stratus/internal/errors"
	"stratus/internal/model"
	"stratus/internal/store"
)

type UserService struct {
	users *store.UserRepo
}

func NewUserService(users *store.UserRepo) *UserService {
	return &UserService{users: users}
}

// Create registers a user and returns it with its API token set. The token
// is the bearer credential; the password only exists for interactive login.
func (s *UserService) Create(ctx context.Context, username, password string, isAdmin bool) (*model.User, error) {
	if username == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "username is required")
	}
	if password == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "password is required")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.CodeConflict, fmt.Sprintf("username %q is taken", username))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Token:        uuid.New().String(),
		IsAdmin:      isAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Authenticate resolves a bearer token to its user, nil when unknown.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	return s.users.GetByToken(ctx, token)
}

// Login checks a username/password pair and returns the user's token.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

// Delete removes a user. The user's index records and shares go with it via
// the store's foreign keys; the files on disk stay until an operator removes
// the storage directory.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return apperrors.New(apperrors.CodeUserNotFound, fmt.Sprintf("no user with id %s", id))
	}
	return s.users.Delete(ctx, id)
}
