package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-collab/internal/middleware"
	"github.com/yukikurage/task-collab/internal/services"
)

// Handlers groups every HTTP handler served by the API
type Handlers struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Tasks  *TaskHandler
	Health *HealthHandler
}

// New builds the handlers for the given services
func New(authService *services.AuthService, taskService *services.TaskService, health *HealthHandler) Handlers {
	return Handlers{
		Auth:   NewAuthHandler(authService),
		Users:  NewUserHandler(authService),
		Tasks:  NewTaskHandler(taskService),
		Health: health,
	}
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r gin.IRouter, h Handlers, taskService *services.TaskService) {
	r.GET("/health", h.Health.Check)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
		}

		api.GET("/users", middleware.RequireAuth(), h.Users.ListUsers)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			access := middleware.RequireTaskAccess(taskService)

			tasks.GET("", h.Tasks.ListTasks)
			tasks.POST("", h.Tasks.CreateTask)
			tasks.GET("/:id", access, h.Tasks.GetTask)
			tasks.PUT("/:id", access, h.Tasks.UpdateTask)
			tasks.DELETE("/:id", access, h.Tasks.DeleteTask)
			tasks.PATCH("/:id/completion", access, h.Tasks.SetCompletion)
			tasks.POST("/:id/toggle", access, h.Tasks.ToggleCompletion)
			tasks.POST("/:id/share", access, h.Tasks.ShareTask)
			tasks.GET("/:id/collaborators", access, h.Tasks.ListCollaborators)
			tasks.DELETE("/:id/collaborators/:user_id", access, h.Tasks.UnshareTask)
			tasks.GET("/:id/share-candidates", access, h.Tasks.ListShareCandidates)
		}
	}
}
