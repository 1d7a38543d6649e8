package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

// ReactionCount — агрегат по одному emoji.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ToggleMessageReaction: существование тройки (message, user, emoji) —
// единственный источник правды; повтор снимает реакцию вместо дубля.
func (d *Database) ToggleMessageReaction(messageID uint, userID uuid.UUID, emoji string) error {
	var existing models.MessageReaction
	err := d.db.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&existing).Error
	if err == nil {
		return d.db.Delete(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return d.db.Create(&models.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}).Error
}

func (d *Database) TallyMessageReactions(messageID uint) ([]ReactionCount, error) {
	reactions := make([]ReactionCount, 0)
	err := d.db.Model(&models.MessageReaction{}).
		Select("emoji, COUNT(*) as count").
		Where("message_id = ?", messageID).
		Group("emoji").
		Scan(&reactions).Error
	return reactions, err
}

// TallyMessageReactionsBulk — агрегаты для пачки сообщений (снапшот).
func (d *Database) TallyMessageReactionsBulk(messageIDs []uint) (map[uint][]ReactionCount, error) {
	result := make(map[uint][]ReactionCount)
	if len(messageIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		MessageID uint
		Emoji     string
		Count     int
	}
	err := d.db.Model(&models.MessageReaction{}).
		Select("message_id, emoji, COUNT(*) as count").
		Where("message_id IN ?", messageIDs).
		Group("message_id, emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.MessageID] = append(result[row.MessageID], ReactionCount{Emoji: row.Emoji, Count: row.Count})
	}

	return result, nil
}

func (d *Database) ToggleDMReaction(messageID uint, userID uuid.UUID, emoji string) error {
	var existing models.DMReaction
	err := d.db.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&existing).Error
	if err == nil {
		return d.db.Delete(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return d.db.Create(&models.DMReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}).Error
}

func (d *Database) TallyDMReactions(messageID uint) ([]ReactionCount, error) {
	reactions := make([]ReactionCount, 0)
	err := d.db.Model(&models.DMReaction{}).
		Select("emoji, COUNT(*) as count").
		Where("message_id = ?", messageID).
		Group("emoji").
		Scan(&reactions).Error
	return reactions, err
}
