package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-collab/internal/models"
	"github.com/yukikurage/task-collab/internal/repository"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotTaskOwner         = errors.New("only the task owner can perform this action")
	ErrTaskPermissionDenied = errors.New("user does not have permission to modify this task")
	ErrCannotShareWithOwner = errors.New("task cannot be shared with its owner")
	ErrInvalidTaskFilter    = fmt.Errorf("%w: status must be all, pending or completed", ErrValidationFailed)
	ErrTitleRequired        = fmt.Errorf("%w: title is required", ErrValidationFailed)
	ErrShareEmailRequired   = fmt.Errorf("%w: email is required", ErrValidationFailed)
)

// TaskFilter selects which tasks ListTasks returns
type TaskFilter string

const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterPending   TaskFilter = "pending"
	TaskFilterCompleted TaskFilter = "completed"
)

// ParseTaskFilter converts a query value into a TaskFilter; empty means all
func ParseTaskFilter(value string) (TaskFilter, error) {
	switch TaskFilter(strings.ToLower(strings.TrimSpace(value))) {
	case "", TaskFilterAll:
		return TaskFilterAll, nil
	case TaskFilterPending:
		return TaskFilterPending, nil
	case TaskFilterCompleted:
		return TaskFilterCompleted, nil
	default:
		return "", ErrInvalidTaskFilter
	}
}

// TaskService handles task business logic
type TaskService struct {
	store repository.Store
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store) *TaskService {
	return &TaskService{
		store: store,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	OwnerID     uint64
}

// UpdateTaskInput replaces every mutable field of a task
type UpdateTaskInput struct {
	Title       string
	Description string
	Completed   bool
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID uint64
	Filter TaskFilter
}

// TaskSummary counts every task visible to a user regardless of filter
type TaskSummary struct {
	Total     int
	Pending   int
	Completed int
}

// TaskList is the result of ListTasks
type TaskList struct {
	Tasks   []models.Task
	Summary TaskSummary
}

// ListTasks returns the tasks a user owns or collaborates on
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) (*TaskList, error) {
	tasks, err := s.store.ListTasksForUser(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	result := &TaskList{Tasks: make([]models.Task, 0, len(tasks))}
	for _, task := range tasks {
		result.Summary.Total++
		if task.Completed {
			result.Summary.Completed++
		} else {
			result.Summary.Pending++
		}

		switch input.Filter {
		case TaskFilterPending:
			if task.Completed {
				continue
			}
		case TaskFilterCompleted:
			if !task.Completed {
				continue
			}
		}
		result.Tasks = append(result.Tasks, task)
	}

	return result, nil
}

// GetTask returns a task with its owner fields
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.store.FindTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CanAccess reports whether the user owns or collaborates on the task
func (s *TaskService) CanAccess(ctx context.Context, task *models.Task, userID uint64) (bool, error) {
	if task.IsOwnedBy(userID) {
		return true, nil
	}

	collaborators, err := s.store.ListCollaborators(ctx, task.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list collaborators: %w", err)
	}
	for _, c := range collaborators {
		if c.ID == userID {
			return true, nil
		}
	}

	return false, nil
}

// CreateTask creates a new task owned by the caller
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	id, err := s.store.CreateTask(ctx, title, strings.TrimSpace(input.Description), input.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(ctx, id)
}

// UpdateTask replaces the title, description and completion of a task
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if _, err := s.requireOwner(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTask(ctx, taskID, title, strings.TrimSpace(input.Description), input.Completed); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

// DeleteTask deletes a task if the actor is the owner
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	if _, err := s.requireOwner(ctx, taskID, actorID); err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// SetCompletion marks a task completed or pending; collaborators may do this too
func (s *TaskService) SetCompletion(ctx context.Context, taskID, actorID uint64, completed bool) (*models.Task, error) {
	if _, err := s.requireParticipant(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	if err := s.store.SetTaskCompletion(ctx, taskID, completed); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to set completion: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

// ToggleCompletion flips a task between pending and completed
func (s *TaskService) ToggleCompletion(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.requireParticipant(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	return s.SetCompletion(ctx, taskID, actorID, !task.Completed)
}

// ShareTask adds the user with the given email as a collaborator
func (s *TaskService) ShareTask(ctx context.Context, taskID, actorID uint64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrShareEmailRequired
	}

	task, err := s.requireOwner(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if task.OwnerEmail == email {
		return ErrCannotShareWithOwner
	}

	if err := s.store.ShareTask(ctx, taskID, email); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrTaskNotFound):
			return ErrTaskNotFound
		default:
			return fmt.Errorf("failed to share task: %w", err)
		}
	}

	return nil
}

// UnshareTask removes a collaborator from a task
func (s *TaskService) UnshareTask(ctx context.Context, taskID, actorID, userID uint64) error {
	if _, err := s.requireOwner(ctx, taskID, actorID); err != nil {
		return err
	}

	if err := s.store.UnshareTask(ctx, taskID, userID); err != nil {
		return fmt.Errorf("failed to unshare task: %w", err)
	}

	return nil
}

// ListCollaborators lists the users a task is shared with
func (s *TaskService) ListCollaborators(ctx context.Context, taskID uint64) ([]models.User, error) {
	users, err := s.store.ListCollaborators(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	return users, nil
}

// ListShareCandidates lists users the task could be shared with, excluding the actor and the owner
func (s *TaskService) ListShareCandidates(ctx context.Context, taskID, actorID uint64) ([]models.User, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.ListAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	candidates := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == actorID || u.ID == task.OwnerID {
			continue
		}
		candidates = append(candidates, u)
	}

	return candidates, nil
}

// requireOwner loads a task and verifies the actor owns it
func (s *TaskService) requireOwner(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(actorID) {
		return nil, ErrNotTaskOwner
	}
	return task, nil
}

// requireParticipant loads a task and verifies the actor owns or collaborates on it
func (s *TaskService) requireParticipant(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	permitted, err := s.CanAccess(ctx, task, actorID)
	if err != nil {
		return nil, err
	}
	if !permitted {
		return nil, ErrTaskPermissionDenied
	}

	return task, nil
}
