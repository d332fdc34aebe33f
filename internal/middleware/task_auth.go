package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-collab/internal/constants"
	apierrors "github.com/yukikurage/task-collab/internal/errors"
	"github.com/yukikurage/task-collab/internal/models"
	"github.com/yukikurage/task-collab/internal/repository"
	"github.com/yukikurage/task-collab/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter.
// The caller must own the task or be one of its collaborators.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.AbortWithError(c, http.StatusBadRequest, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "Invalid task ID"))
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		task, err := taskService.GetTask(c.Request.Context(), taskID)
		if err != nil {
			abortWithLookupError(c, err)
			return
		}

		permitted, err := taskService.CanAccess(c.Request.Context(), task, userID)
		if err != nil {
			abortWithLookupError(c, err)
			return
		}
		if !permitted {
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.AbortWithError(c, http.StatusNotFound, errTaskNotFound)
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}

var errTaskNotFound = apierrors.NewAPIError(apierrors.ErrCodeNotFound, "Task not found")

func abortWithLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.AbortWithError(c, http.StatusNotFound, errTaskNotFound)
	case errors.Is(err, repository.ErrStorageUnavailable):
		apierrors.AbortWithError(c, http.StatusServiceUnavailable, apierrors.NewAPIError(apierrors.ErrCodeStorageUnavailable, "Storage temporarily unavailable"))
	default:
		apierrors.AbortWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Failed to load task"))
	}
}
