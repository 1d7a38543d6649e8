package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Board struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           string    `gorm:"uniqueIndex;not null"`
	Title          string    `gorm:"default:'Untitled'"`
	Theme          string    `gorm:"default:'ocean'"`
	AccentColor    string    `gorm:"default:'#38bdf8'"`
	BackgroundAnim string    `gorm:"default:'aurora'"`
	Template       string
	OwnerID        *uuid.UUID
	CreatedAt      time.Time

	// Связи
	Cards    []Card    `gorm:"foreignKey:BoardID"`
	Messages []Message `gorm:"foreignKey:BoardID"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BoardMember — роль пользователя на доске. Отсутствие строки
// означает "не участник", это не то же самое, что роль viewer.
type BoardMember struct {
	BoardID  uuid.UUID `gorm:"primaryKey"`
	UserID   uuid.UUID `gorm:"primaryKey"`
	Role     string    `gorm:"default:'member'"`
	JoinedAt time.Time
}

type BoardActivity struct {
	ID        uint      `gorm:"primaryKey"`
	BoardID   uuid.UUID `gorm:"not null;index"`
	UserID    *uuid.UUID
	Kind      string `gorm:"not null"`
	Payload   string
	CreatedAt time.Time
}

type PresenceEntry struct {
	ID        uint      `gorm:"primaryKey"`
	BoardID   uuid.UUID `gorm:"not null;index"`
	UserID    *uuid.UUID
	Action    string `gorm:"not null"`
	Details   string
	CreatedAt time.Time
}

type BoardInvite struct {
	ID        uint      `gorm:"primaryKey"`
	BoardID   uuid.UUID `gorm:"not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt *time.Time
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}
