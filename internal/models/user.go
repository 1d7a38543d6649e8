package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	AvatarURL    string
	Status       string `gorm:"default:'offline'"`
	Badge        string `gorm:"default:'Member'"`
	AccentColor  string `gorm:"default:'#38bdf8'"`
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// BeforeCreate генерирует id на клиенте, схема от СУБД не зависит.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Contact — связь двух пользователей (pending/accepted)
type Contact struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_contact_pair"`
	ContactID uuid.UUID `gorm:"not null;uniqueIndex:idx_contact_pair"`
	Status    string    `gorm:"default:'pending'"`
	CreatedAt time.Time
}

type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"not null;index"`
	Content   string    `gorm:"not null"`
	Link      string
	ReadAt    *time.Time
	CreatedAt time.Time
}
