package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/yukikurage/task-collab/internal/models"
)

// MemoryStore is a non-persistent Store. One lock guards all three
// collections and is held for a whole read-modify-write cycle.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[uint64]models.User
	usersByEmail  map[string]uint64
	tasks         map[uint64]models.Task
	collaborators []models.Collaborator

	nextUserID         uint64
	nextTaskID         uint64
	nextCollaboratorID uint64
}

// NewMemoryStore creates an empty in-memory Store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uint64]models.User),
		usersByEmail: make(map[string]uint64),
		tasks:        make(map[uint64]models.Task),
	}
}

// Initialize is a no-op; the maps are ready after NewMemoryStore.
func (s *MemoryStore) Initialize(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// CreateUser creates a new user
func (s *MemoryStore) CreateUser(ctx context.Context, name, email, password string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return 0, ErrDuplicateEmail
	}

	s.nextUserID++
	user := models.User{
		ID:           s.nextUserID,
		Name:         name,
		Email:        email,
		PasswordHash: password,
		CreatedAt:    time.Now(),
	}
	s.users[user.ID] = user
	s.usersByEmail[email] = user.ID
	return user.ID, nil
}

// FindUserByEmail finds a user by email
func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, false, nil
	}
	user := s.users[id]
	return &user, true, nil
}

// FindUserByID finds a user by ID
func (s *MemoryStore) FindUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// ListAllUsers lists every user without credentials
func (s *MemoryStore) ListAllUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, publicUser(u))
	}
	slices.SortFunc(users, func(a, b models.User) int {
		return compareIDs(a.ID, b.ID)
	})
	return users, nil
}

// CreateTask creates a new task
func (s *MemoryStore) CreateTask(ctx context.Context, title, description string, ownerID uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return 0, ErrUserNotFound
	}

	s.nextTaskID++
	now := time.Now()
	task := models.Task{
		ID:          s.nextTaskID,
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[task.ID] = task
	return task.ID, nil
}

// FindTaskByID finds a task by ID with owner fields
func (s *MemoryStore) FindTaskByID(ctx context.Context, id uint64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	task = s.withOwner(task)
	return &task, nil
}

// ListTasksForUser lists tasks owned by or shared with the user
func (s *MemoryStore) ListTasksForUser(ctx context.Context, userID uint64) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	shared := make(map[uint64]struct{})
	for _, c := range s.collaborators {
		if c.UserID == userID {
			shared[c.TaskID] = struct{}{}
		}
	}

	tasks := []models.Task{}
	for _, task := range s.tasks {
		if _, ok := shared[task.ID]; ok || task.OwnerID == userID {
			tasks = append(tasks, s.withOwner(task))
		}
	}
	slices.SortFunc(tasks, compareTasks)
	return tasks, nil
}

// UpdateTask replaces the mutable fields of a task
func (s *MemoryStore) UpdateTask(ctx context.Context, id uint64, title, description string, completed bool) error {
	return s.modifyTask(ctx, id, func(task *models.Task) {
		task.Title = title
		task.Description = description
		task.Completed = completed
	})
}

// SetTaskCompletion updates the completed flag
func (s *MemoryStore) SetTaskCompletion(ctx context.Context, id uint64, completed bool) error {
	return s.modifyTask(ctx, id, func(task *models.Task) {
		task.Completed = completed
	})
}

// modifyTask applies a change to one task under the write lock
func (s *MemoryStore) modifyTask(ctx context.Context, id uint64, apply func(*models.Task)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	apply(&task)
	task.UpdatedAt = time.Now()
	s.tasks[id] = task
	return nil
}

// DeleteTask deletes a task and its collaborators
func (s *MemoryStore) DeleteTask(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collaborators = slices.DeleteFunc(s.collaborators, func(c models.Collaborator) bool {
		return c.TaskID == id
	})
	delete(s.tasks, id)
	return nil
}

// ShareTask adds the user with the given email as a collaborator
func (s *MemoryStore) ShareTask(ctx context.Context, taskID uint64, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.usersByEmail[email]
	if !ok {
		return ErrUserNotFound
	}
	if _, ok := s.tasks[taskID]; !ok {
		return ErrTaskNotFound
	}

	for _, c := range s.collaborators {
		if c.TaskID == taskID && c.UserID == userID {
			return nil
		}
	}

	s.nextCollaboratorID++
	s.collaborators = append(s.collaborators, models.Collaborator{
		ID:        s.nextCollaboratorID,
		TaskID:    taskID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	return nil
}

// UnshareTask removes a collaborator from a task
func (s *MemoryStore) UnshareTask(ctx context.Context, taskID, userID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collaborators = slices.DeleteFunc(s.collaborators, func(c models.Collaborator) bool {
		return c.TaskID == taskID && c.UserID == userID
	})
	return nil
}

// ListCollaborators lists the users a task is shared with
func (s *MemoryStore) ListCollaborators(ctx context.Context, taskID uint64) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, c := range s.collaborators {
		if c.TaskID != taskID {
			continue
		}
		if u, ok := s.users[c.UserID]; ok {
			users = append(users, publicUser(u))
		}
	}
	return users, nil
}

// withOwner must be called with the lock held.
func (s *MemoryStore) withOwner(task models.Task) models.Task {
	if owner, ok := s.users[task.OwnerID]; ok {
		task.OwnerName = owner.Name
		task.OwnerEmail = owner.Email
	}
	return task
}
