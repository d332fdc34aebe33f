package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-collab/internal/constants"
	apierrors "github.com/yukikurage/task-collab/internal/errors"
	"github.com/yukikurage/task-collab/internal/repository"
	"github.com/yukikurage/task-collab/internal/services"
)

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()

	var response apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestRequireAuth_AbortsWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reached := false
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeAPIError(t, w).Code)
	assert.False(t, reached, "handler after RequireAuth must not run")
}

func TestRequireTaskAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := repository.NewMemoryStore()
	ownerID, err := store.CreateUser(ctx, "Owner", "owner@example.com", "x")
	require.NoError(t, err)
	strangerID, err := store.CreateUser(ctx, "Stranger", "stranger@example.com", "x")
	require.NoError(t, err)
	taskID, err := store.CreateTask(ctx, "Private", "", ownerID)
	require.NoError(t, err)

	taskService := services.NewTaskService(store)

	serve := func(userID uint64, path string) (*httptest.ResponseRecorder, bool) {
		reached := false
		r := gin.New()
		r.GET("/tasks/:id", func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, userID)
		}, RequireTaskAccess(taskService), func(c *gin.Context) {
			reached = true
			task, ok := GetTask(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"id": task.ID})
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w, reached
	}

	t.Run("owner passes", func(t *testing.T) {
		w, reached := serve(ownerID, fmt.Sprintf("/tasks/%d", taskID))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		w, reached := serve(strangerID, fmt.Sprintf("/tasks/%d", taskID))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apierrors.ErrCodeNotFound, decodeAPIError(t, w).Code)
		assert.False(t, reached)
	})

	t.Run("missing task", func(t *testing.T) {
		w, reached := serve(ownerID, "/tasks/999")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, reached)
	})

	t.Run("invalid id", func(t *testing.T) {
		w, reached := serve(ownerID, "/tasks/abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrCodeInvalidInput, decodeAPIError(t, w).Code)
		assert.False(t, reached)
	})
}
