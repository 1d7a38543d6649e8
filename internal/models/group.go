package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupRoom struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"uniqueIndex;not null"`
	Title     string `gorm:"not null"`
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

type GroupMessage struct {
	ID         uint `gorm:"primaryKey"`
	RoomID     uint `gorm:"not null;index"`
	SenderID   *uuid.UUID
	SenderName string
	Text       string `gorm:"not null"`
	EditedAt   *time.Time
	DeletedAt  *time.Time
	CreatedAt  time.Time
}
