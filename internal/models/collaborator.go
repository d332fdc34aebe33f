package models

import "time"

// Collaborator links a user to a task they did not create. One row per (task, user) pair.
type Collaborator struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;uniqueIndex:idx_collaborators_task_user" json:"task_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_collaborators_task_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
