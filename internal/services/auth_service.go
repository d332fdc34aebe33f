package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-collab/internal/constants"
	"github.com/yukikurage/task-collab/internal/models"
	"github.com/yukikurage/task-collab/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")

	ErrNameRequired       = fmt.Errorf("%w: name is required", ErrValidationFailed)
	ErrEmailRequired      = fmt.Errorf("%w: email is required", ErrValidationFailed)
	ErrEmailInvalid       = fmt.Errorf("%w: email is not a valid address", ErrValidationFailed)
	ErrPasswordRequired   = fmt.Errorf("%w: password is required", ErrValidationFailed)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, constants.MinPasswordLength)
	ErrPasswordMismatch   = fmt.Errorf("%w: passwords do not match", ErrValidationFailed)
	ErrConfirmationNeeded = fmt.Errorf("%w: password confirmation is required", ErrValidationFailed)
)

// AuthService handles authentication related business logic.
type AuthService struct {
	users repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{
		users: users,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register validates the input and creates a new user with a hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	switch {
	case name == "":
		return nil, ErrNameRequired
	case email == "":
		return nil, ErrEmailRequired
	case input.Password == "":
		return nil, ErrPasswordRequired
	case input.ConfirmPassword == "":
		return nil, ErrConfirmationNeeded
	}
	if !validEmail(email) {
		return nil, ErrEmailInvalid
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	id, err := s.users.CreateUser(ctx, name, email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:    id,
		Name:  name,
		Email: email,
	}, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, found, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ListUsers returns every registered user without credentials.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// validEmail accepts addresses with one @, a non-empty local part and a dotted domain.
func validEmail(email string) bool {
	if strings.Count(email, "@") != 1 || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
