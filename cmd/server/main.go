package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-collab/internal/config"
	"github.com/yukikurage/task-collab/internal/constants"
	"github.com/yukikurage/task-collab/internal/handlers"
	"github.com/yukikurage/task-collab/internal/logger"
	"github.com/yukikurage/task-collab/internal/middleware"
	"github.com/yukikurage/task-collab/internal/repository"
	"github.com/yukikurage/task-collab/internal/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fall back to a non-persistent store rather than refusing to start
	degraded := false
	store, err := repository.Open(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Warn("task store unavailable, serving from memory; data will not persist",
			zap.String("driver", cfg.Database.Driver),
			zap.Error(err),
		)
		store = repository.NewMemoryStore()
		degraded = true
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Error("failed to close task store", zap.Error(err))
		}
	}()

	gin.SetMode(cfg.HTTP.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(zapLogger))

	sessionStore, err := newSessionStore(cfg.Session)
	if err != nil {
		zapLogger.Fatal("failed to create session store", zap.Error(err))
	}
	isProduction := cfg.HTTP.GinMode == gin.ReleaseMode
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	authService := services.NewAuthService(store)
	taskService := services.NewTaskService(store)

	h := handlers.New(authService, taskService, handlers.NewHealthHandler(cfg.Database.Driver, degraded))
	handlers.RegisterRoutes(r, h, taskService)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func newSessionStore(cfg config.SessionConfig) (sessions.Store, error) {
	switch cfg.Store {
	case "redis":
		return redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.RedisHost+":"+cfg.RedisPort,
			"", // password (empty = no password)
			[]byte(cfg.Secret),
		)
	default:
		return cookie.NewStore([]byte(cfg.Secret)), nil
	}
}
