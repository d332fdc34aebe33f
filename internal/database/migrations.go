package database

import (
	"fmt"

	"github.com/yukikurage/task-collab/internal/models"
	"gorm.io/gorm"
)

// Migrate creates the users, tasks and collaborators tables and their indexes.
// Running it against an up-to-date schema changes nothing.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Collaborator{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}

// AddIndexes adds the composite indexes used by task listing
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Listing sorts pending first, newest first
		{"tasks", "idx_tasks_owner_completed_id", "owner_id, completed, id"},
		{"collaborators", "idx_collaborators_user_task", "user_id, task_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
