package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-collab/internal/errors"
	"github.com/yukikurage/task-collab/internal/repository"
	"github.com/yukikurage/task-collab/internal/services"
)

// respondServiceError maps service and store errors onto the API error envelope
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, services.ErrValidationFailed):
		apierrors.ValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrNotTaskOwner),
		errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrCannotShareWithOwner):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.EmailTaken(c, err.Error())
	case errors.Is(err, repository.ErrStorageUnavailable):
		apierrors.StorageUnavailable(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
