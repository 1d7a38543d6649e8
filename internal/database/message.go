package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

func (d *Database) InsertMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id uint) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListRecentMessages берет последние limit сообщений доски и
// разворачивает их, чтобы старые шли первыми. Удаленные не отдаются.
func (d *Database) ListRecentMessages(boardID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("board_id = ? AND deleted_at IS NULL", boardID).
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

func (d *Database) SetMessageEdited(id uint, text string) (*models.Message, error) {
	now := time.Now()
	err := d.db.Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"text": text, "edited_at": &now}).Error
	if err != nil {
		return nil, err
	}
	return d.GetMessage(id)
}

func (d *Database) SetMessageDeleted(id uint) error {
	return d.db.Model(&models.Message{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// ToggleMessagePinned переключает флаг, а не выставляет его.
func (d *Database) ToggleMessagePinned(id uint, boardID uuid.UUID) (*models.Message, error) {
	err := d.db.Model(&models.Message{}).
		Where("id = ? AND board_id = ?", id, boardID).
		Update("pinned", gorm.Expr("CASE WHEN pinned THEN ? ELSE ? END", false, true)).Error
	if err != nil {
		return nil, err
	}
	return d.GetMessage(id)
}
