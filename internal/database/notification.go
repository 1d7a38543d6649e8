package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

func (d *Database) AddNotification(userID uuid.UUID, content, link string) error {
	return d.db.Create(&models.Notification{
		UserID:  userID,
		Content: content,
		Link:    link,
	}).Error
}

func (d *Database) ListNotifications(userID uuid.UUID, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := d.db.
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (d *Database) MarkNotificationsRead(userID uuid.UUID) error {
	return d.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
}
