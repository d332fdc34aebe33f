package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-collab/internal/repository"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAuthService(store)

	user, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.PasswordHash)

	stored, found, err := store.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEqual(t, "secret1", stored.PasswordHash, "password must be hashed")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "  " }, ErrNameRequired},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, ErrEmailRequired},
		{"missing password", func(in *RegisterInput) { in.Password = "" }, ErrPasswordRequired},
		{"missing confirmation", func(in *RegisterInput) { in.ConfirmPassword = "" }, ErrConfirmationNeeded},
		{"no at sign", func(in *RegisterInput) { in.Email = "alice.example.com" }, ErrEmailInvalid},
		{"two at signs", func(in *RegisterInput) { in.Email = "a@b@example.com" }, ErrEmailInvalid},
		{"empty local part", func(in *RegisterInput) { in.Email = "@example.com" }, ErrEmailInvalid},
		{"undotted domain", func(in *RegisterInput) { in.Email = "alice@localhost" }, ErrEmailInvalid},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "12345", "12345" }, ErrPasswordTooShort},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "secret2" }, ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(repository.NewMemoryStore())
			input := validRegisterInput()
			tt.mutate(&input)

			_, err := svc.Register(context.Background(), input)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repository.NewMemoryStore())

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegisterInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repository.NewMemoryStore())

	registered, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	user, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUser(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repository.NewMemoryStore())

	registered, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	user, err := svc.GetUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.GetUser(ctx, registered.ID+1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("a@b.co"))
	assert.True(t, validEmail("first.last@sub.example.org"))
	assert.False(t, validEmail("a@.com"))
	assert.False(t, validEmail("a@com."))
	assert.False(t, validEmail("a b@example.com"))
}
