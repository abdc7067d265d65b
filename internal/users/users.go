// Package users manages operator accounts and credential checks.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles an account can hold.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User represents an operator account. The password hash never leaves the
// API.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest describes a user to create.
type CreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=150"`
	Role     string `json:"role" validate:"required,oneof=admin operator viewer"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateRequest describes mutable account fields.
type UpdateRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Role     string `json:"role" validate:"required,oneof=admin operator viewer"`
	IsActive bool   `json:"is_active"`
}

// ChangePasswordRequest carries a new password for an account.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// Domain errors.
var (
	ErrNotFound           = errors.New("users: user not found")
	ErrEmailTaken         = errors.New("users: email already registered")
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	ErrWeakPassword       = errors.New("users: password too short")
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int64, user User) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	if len(req.Password) < 8 {
		return User{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	return s.repo.Create(ctx, user)
}

// Update edits name, role and active flag.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) error {
	return s.repo.Update(ctx, id, User{
		Name:     strings.TrimSpace(req.Name),
		Role:     req.Role,
		IsActive: req.IsActive,
	})
}

// ChangePassword replaces the stored hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	if len(req.Password) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPasswordHash(ctx, id, string(hash))
}

// Delete removes the account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Authenticate validates email/password credentials. Inactive accounts fail
// like unknown ones so the response leaks nothing.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}
