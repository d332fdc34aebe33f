package dto

import (
	"time"

	"github.com/yukikurage/task-collab/internal/models"
	"github.com/yukikurage/task-collab/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uint64    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	OwnerEmail  string    `json:"owner_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskSummaryDTO counts the tasks visible to the caller
type TaskSummaryDTO struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// TaskListResponse represents a filtered list of tasks
type TaskListResponse struct {
	Tasks   []TaskDTO      `json:"tasks"`
	Filter  string         `json:"filter"`
	Summary TaskSummaryDTO `json:"summary"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToUserDTOs converts users to DTOs
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		OwnerID:     task.OwnerID,
		OwnerName:   task.OwnerName,
		OwnerEmail:  task.OwnerEmail,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskListResponse converts a service TaskList to its response form
func ToTaskListResponse(list *services.TaskList, filter services.TaskFilter) TaskListResponse {
	tasks := make([]TaskDTO, len(list.Tasks))
	for i, task := range list.Tasks {
		tasks[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:  tasks,
		Filter: string(filter),
		Summary: TaskSummaryDTO{
			Total:     list.Summary.Total,
			Pending:   list.Summary.Pending,
			Completed: list.Summary.Completed,
		},
	}
}
