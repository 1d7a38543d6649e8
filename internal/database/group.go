package database

import (
	"github.com/l3nnardwlg/echoboard/internal/models"
)

func (d *Database) GetGroupBySlug(slug string) (*models.GroupRoom, error) {
	var room models.GroupRoom
	if err := d.db.Where("slug = ?", slug).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) ListGroupRooms() ([]models.GroupRoom, error) {
	var rooms []models.GroupRoom
	err := d.db.Order("created_at DESC").Find(&rooms).Error
	return rooms, err
}

func (d *Database) InsertGroupMessage(message *models.GroupMessage) error {
	return d.db.Create(message).Error
}

// ListGroupMessages — последние limit сообщений, старые первыми.
func (d *Database) ListGroupMessages(roomID uint, limit int) ([]models.GroupMessage, error) {
	var messages []models.GroupMessage
	err := d.db.
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
