package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-collab/internal/models"
)

var (
	// ErrStorageUnavailable is returned when the backing medium cannot be opened or prepared.
	ErrStorageUnavailable = errors.New("task store: storage unavailable")
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("task store: duplicate email")
	// ErrUserNotFound is returned when a user lookup by id or email has no match.
	ErrUserNotFound = errors.New("task store: user not found")
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("task store: task not found")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateUser stores a new user and returns its id. The password is stored as given.
	CreateUser(ctx context.Context, name, email, password string) (uint64, error)

	// FindUserByEmail looks up a user by exact email. A missing user is not an error.
	FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error)

	// FindUserByID finds a user by ID
	FindUserByID(ctx context.Context, id uint64) (*models.User, error)

	// ListAllUsers returns every user with id, name and email populated
	ListAllUsers(ctx context.Context) ([]models.User, error)
}

// TaskRepository defines the interface for task and collaboration data access
type TaskRepository interface {
	// CreateTask creates a new pending task owned by ownerID
	CreateTask(ctx context.Context, title, description string, ownerID uint64) (uint64, error)

	// FindTaskByID finds a task with its owner fields joined
	FindTaskByID(ctx context.Context, id uint64) (*models.Task, error)

	// ListTasksForUser returns tasks owned by or shared with userID,
	// pending before completed, newest first within each group.
	ListTasksForUser(ctx context.Context, userID uint64) ([]models.Task, error)

	// UpdateTask replaces title, description and completed
	UpdateTask(ctx context.Context, id uint64, title, description string, completed bool) error

	// SetTaskCompletion updates only the completed flag
	SetTaskCompletion(ctx context.Context, id uint64, completed bool) error

	// DeleteTask removes a task and its collaborations. Deleting a missing task is a no-op.
	DeleteTask(ctx context.Context, id uint64) error

	// ShareTask links the user with the given email to the task. Repeating it is a no-op.
	ShareTask(ctx context.Context, taskID uint64, email string) error

	// UnshareTask removes a single collaboration link. Removing a missing link is a no-op.
	UnshareTask(ctx context.Context, taskID, userID uint64) error

	// ListCollaborators returns the users linked to a task in the order they were added
	ListCollaborators(ctx context.Context, taskID uint64) ([]models.User, error)
}

// Store is the full task store used by the services.
type Store interface {
	UserRepository
	TaskRepository

	// Initialize prepares the backing storage. Calling it more than once is safe.
	Initialize(ctx context.Context) error

	// Close releases the backing storage.
	Close() error
}

// publicUser strips the credential from a user for listings.
func publicUser(u models.User) models.User {
	return models.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// compareTasks orders pending tasks before completed ones, newest first within each group.
func compareTasks(a, b models.Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	default:
		return 0
	}
}
