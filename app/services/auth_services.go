package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/auth"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/orm"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email     string  `json:"email"      validate:"required,email,max=255"`
	Password  string  `json:"password"   validate:"required,min=6,max=72"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name"  validate:"max=100"`
	Phone     *string `json:"phone"      validate:"nullable,max=30"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is what register and login return.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("services: register: %w", err)
	}
	if taken {
		return nil, BadRequest("Email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("services: register: %w", err)
	}

	user := models.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     in.Phone,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("services: register: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, orm.ErrNotFound) {
		return nil, Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("services: login: %w", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, Unauthorized("Invalid credentials")
	}
	return s.issue(user)
}

// Me returns the user behind the request's identity.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return user, notFoundAs(err, "User not found", "me")
	}
	return user, nil
}

// Lookup resolves a token's user for the auth middleware.
func (s *AuthService) Lookup(ctx context.Context, userID string) (middleware.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, orm.ErrNotFound) {
		return middleware.Identity{}, middleware.ErrUserNotFound
	}
	if err != nil {
		return middleware.Identity{}, err
	}
	return middleware.Identity{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

func (s *AuthService) issue(user models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("services: issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
