package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/task-collab/internal/database"
	"github.com/yukikurage/task-collab/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewGormStore creates a Store backed by a relational database
func NewGormStore(db *gorm.DB, log *zap.Logger) *GormStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormStore{db: db, log: log}
}

// Initialize verifies the connection and migrates the schema
func (s *GormStore) Initialize(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := database.Migrate(s.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser creates a new user
func (s *GormStore) CreateUser(ctx context.Context, name, email, password string) (uint64, error) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		return tx.Create(user).Error
	})
	if err != nil {
		// The unique index catches writers that raced past the count.
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.log.Debug("user created", zap.Uint64("user_id", user.ID))
	return user.ID, nil
}

// FindUserByEmail finds a user by email
func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find user by email: %w", err)
	}
	return &user, true, nil
}

// FindUserByID finds a user by ID
func (s *GormStore) FindUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ListAllUsers lists every user without credentials
func (s *GormStore) ListAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).
		Select("id", "name", "email").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateTask creates a new task
func (s *GormStore) CreateTask(ctx context.Context, title, description string, ownerID uint64) (uint64, error) {
	task := &models.Task{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return tx.Create(task).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("create task: %w", err)
	}

	s.log.Debug("task created", zap.Uint64("task_id", task.ID), zap.Uint64("owner_id", ownerID))
	return task.ID, nil
}

// FindTaskByID finds a task by ID with owner fields
func (s *GormStore) FindTaskByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := s.tasksWithOwner(ctx).Where("tasks.id = ?", id).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// ListTasksForUser lists tasks owned by or shared with the user
func (s *GormStore) ListTasksForUser(ctx context.Context, userID uint64) ([]models.Task, error) {
	shared := s.db.Model(&models.Collaborator{}).
		Select("task_id").
		Where("user_id = ?", userID)

	tasks := []models.Task{}
	if err := s.tasksWithOwner(ctx).
		Where("tasks.owner_id = ? OR tasks.id IN (?)", userID, shared).
		Order("tasks.completed ASC, tasks.id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask replaces the mutable fields of a task
func (s *GormStore) UpdateTask(ctx context.Context, id uint64, title, description string, completed bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireTask(tx, id); err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":       title,
			"description": description,
			"completed":   completed,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SetTaskCompletion updates the completed flag
func (s *GormStore) SetTaskCompletion(ctx context.Context, id uint64, completed bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireTask(tx, id); err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", id).Update("completed", completed).Error
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("set task completion: %w", err)
	}
	return nil
}

// DeleteTask deletes a task and its collaborators in a transaction
func (s *GormStore) DeleteTask(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Collaborator{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.log.Debug("task deleted", zap.Uint64("task_id", id))
	return nil
}

// ShareTask adds the user with the given email as a collaborator
func (s *GormStore) ShareTask(ctx context.Context, taskID uint64, email string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := requireTask(tx, taskID); err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.Collaborator{
			TaskID: taskID,
			UserID: user.ID,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("share task: %w", err)
	}

	s.log.Debug("task shared", zap.Uint64("task_id", taskID))
	return nil
}

// UnshareTask removes a collaborator from a task
func (s *GormStore) UnshareTask(ctx context.Context, taskID, userID uint64) error {
	if err := s.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.Collaborator{}).Error; err != nil {
		return fmt.Errorf("unshare task: %w", err)
	}
	return nil
}

// ListCollaborators lists the users a task is shared with
func (s *GormStore) ListCollaborators(ctx context.Context, taskID uint64) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.name, users.email").
		Joins("INNER JOIN collaborators ON collaborators.user_id = users.id").
		Where("collaborators.task_id = ?", taskID).
		Order("collaborators.id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	return users, nil
}

func (s *GormStore) tasksWithOwner(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("tasks.*, users.name AS owner_name, users.email AS owner_email").
		Joins("LEFT JOIN users ON users.id = tasks.owner_id")
}

func requireTask(tx *gorm.DB, id uint64) error {
	var count int64
	if err := tx.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTaskNotFound
	}
	return nil
}
