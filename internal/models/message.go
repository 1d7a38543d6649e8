package models

import (
	"time"

	"github.com/google/uuid"
)

// Message — сообщение чата доски. DeletedAt хранится как обычный
// timestamp (soft delete): запись остается в базе, снапшоты её не отдают.
type Message struct {
	ID          uint      `gorm:"primaryKey"`
	BoardID     uuid.UUID `gorm:"not null;index"`
	Author      string    `gorm:"default:''"`
	Text        string    `gorm:"not null"`
	Channel     string    `gorm:"default:'general'"`
	ReplyTo     *uint
	Pinned      bool   `gorm:"default:false"`
	Attachments string // JSON-список {name, stored, mime}
	VoicePath   string
	EditedAt    *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
}

// MessageReaction — уникальная тройка (message, user, emoji);
// повторная идентичная реакция снимает существующую.
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_msg_reaction"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_msg_reaction"`
	Emoji     string    `gorm:"not null;uniqueIndex:idx_msg_reaction"`
	CreatedAt time.Time
}
