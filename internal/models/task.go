package models

import "time"

type Task struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	OwnerID     uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined from users at read time, never persisted on the task row.
	OwnerName  string `gorm:"->;-:migration" json:"owner_name"`
	OwnerEmail string `gorm:"->;-:migration" json:"owner_email"`

	// Relations
	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

// IsOwnedBy reports whether userID owns the task.
func (t Task) IsOwnedBy(userID uint64) bool {
	return t.OwnerID == userID
}
