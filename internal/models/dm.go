package models

import (
	"time"

	"github.com/google/uuid"
)

type DirectMessage struct {
	ID         uint      `gorm:"primaryKey"`
	SenderID   uuid.UUID `gorm:"not null;index"`
	ReceiverID uuid.UUID `gorm:"not null;index"`
	Text       string    `gorm:"not null"`
	ReplyTo    *uint
	VoicePath  string
	EditedAt   *time.Time
	DeletedAt  *time.Time
	ReadAt     *time.Time
	CreatedAt  time.Time
}

type DMReaction struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_dm_reaction"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_dm_reaction"`
	Emoji     string    `gorm:"not null;uniqueIndex:idx_dm_reaction"`
	CreatedAt time.Time
}

type MessageRead struct {
	MessageID uint      `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"primaryKey"`
	ReadAt    time.Time
}
