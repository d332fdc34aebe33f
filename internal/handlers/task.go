package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-collab/internal/dto"
	apierrors "github.com/yukikurage/task-collab/internal/errors"
	"github.com/yukikurage/task-collab/internal/middleware"
	"github.com/yukikurage/task-collab/internal/models"
	"github.com/yukikurage/task-collab/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks owned by or shared with the current user
// Can filter by status=all|pending|completed
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	filter, err := services.ParseTaskFilter(c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	list, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		UserID: userID,
		Filter: filter,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(list, filter))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask replaces a task's title, description and completion
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, userID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task and all of its collaborations
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// SetCompletion marks a task completed or pending
func (h *TaskHandler) SetCompletion(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "completed is required")
		return
	}

	updated, err := h.taskService.SetCompletion(c.Request.Context(), task.ID, userID, *req.Completed)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ToggleCompletion flips a task between pending and completed
func (h *TaskHandler) ToggleCompletion(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	updated, err := h.taskService.ToggleCompletion(c.Request.Context(), task.ID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ShareTask shares a task with the user registered under the given email
func (h *TaskHandler) ShareTask(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.ShareTask(c.Request.Context(), task.ID, userID, req.Email); err != nil {
		respondServiceError(c, err)
		return
	}

	collaborators, err := h.taskService.ListCollaborators(c.Request.Context(), task.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Task shared successfully",
		"collaborators": dto.ToUserDTOs(collaborators),
	})
}

// ListCollaborators lists the users a task is shared with
func (h *TaskHandler) ListCollaborators(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	collaborators, err := h.taskService.ListCollaborators(c.Request.Context(), task.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collaborators": dto.ToUserDTOs(collaborators),
	})
}

// UnshareTask removes a collaborator from a task
func (h *TaskHandler) UnshareTask(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	collaboratorID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.taskService.UnshareTask(c.Request.Context(), task.ID, userID, collaboratorID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Collaborator removed successfully",
	})
}

// ListShareCandidates lists users the task could still be shared with
func (h *TaskHandler) ListShareCandidates(c *gin.Context) {
	task, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	users, err := h.taskService.ListShareCandidates(c.Request.Context(), task.ID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

// taskAndUser returns the task loaded by RequireTaskAccess and the caller's ID
func (h *TaskHandler) taskAndUser(c *gin.Context) (models.Task, uint64, bool) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return models.Task{}, 0, false
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return models.Task{}, 0, false
	}

	return task, userID, true
}
