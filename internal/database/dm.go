package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

func (d *Database) InsertDirectMessage(message *models.DirectMessage) error {
	return d.db.Create(message).Error
}

func (d *Database) GetDirectMessage(id uint) (*models.DirectMessage, error) {
	var message models.DirectMessage
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListDirectMessages — переписка пары в хронологическом порядке,
// без удаленных.
func (d *Database) ListDirectMessages(a, b uuid.UUID, limit int) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	err := d.db.
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND deleted_at IS NULL", a, b, b, a).
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

func (d *Database) SetDirectMessageEdited(id uint, text string) (*models.DirectMessage, error) {
	now := time.Now()
	err := d.db.Model(&models.DirectMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"text": text, "edited_at": &now}).Error
	if err != nil {
		return nil, err
	}
	return d.GetDirectMessage(id)
}

func (d *Database) SetDirectMessageDeleted(id uint) error {
	return d.db.Model(&models.DirectMessage{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// MarkDirectMessageRead ставит read_at и апсертит строку квитанции.
func (d *Database) MarkDirectMessageRead(id uint, readerID uuid.UUID) error {
	err := d.db.Model(&models.DirectMessage{}).
		Where("id = ?", id).
		Update("read_at", time.Now()).Error
	if err != nil {
		return err
	}
	return d.db.Save(&models.MessageRead{
		MessageID: id,
		UserID:    readerID,
		ReadAt:    time.Now(),
	}).Error
}
