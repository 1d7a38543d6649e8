package models

import (
	"time"

	"github.com/google/uuid"
)

type Card struct {
	ID             uint      `gorm:"primaryKey"`
	BoardID        uuid.UUID `gorm:"not null;index"`
	Author         string    `gorm:"default:''"`
	Text           string    `gorm:"not null"`
	Tag            string    `gorm:"default:''"`
	Votes          int       `gorm:"default:0"`
	OrderIndex     *int
	AttachmentPath string
	CreatedAt      time.Time
}
