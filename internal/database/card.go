package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

// ListCards отдает карточки доски по явному порядку,
// с фолбэком на id, если order_index не выставлен.
func (d *Database) ListCards(boardID uuid.UUID) ([]models.Card, error) {
	var cards []models.Card
	err := d.db.
		Where("board_id = ?", boardID).
		Order("COALESCE(order_index, id) ASC").
		Find(&cards).Error
	return cards, err
}

func (d *Database) GetCard(id uint) (*models.Card, error) {
	var card models.Card
	if err := d.db.First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// InsertCard выставляет новой карточке order_index = max(existing)+1.
func (d *Database) InsertCard(card *models.Card) error {
	var next int
	err := d.db.Model(&models.Card{}).
		Where("board_id = ?", card.BoardID).
		Select("COALESCE(MAX(order_index), -1) + 1").
		Scan(&next).Error
	if err != nil {
		return err
	}
	card.OrderIndex = &next
	return d.db.Create(card).Error
}

// VoteCard — безусловный инкремент, без защиты от повторов.
func (d *Database) VoteCard(id uint) (*models.Card, error) {
	err := d.db.Model(&models.Card{}).
		Where("id = ?", id).
		UpdateColumn("votes", gorm.Expr("COALESCE(votes, 0) + 1")).Error
	if err != nil {
		return nil, err
	}
	return d.GetCard(id)
}

// ReorderCards перезаписывает индексы под порядок, присланный клиентом.
// Последний запрос выигрывает, сервер конфликты не разрешает.
func (d *Database) ReorderCards(boardID uuid.UUID, order []uint) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		for idx, cardID := range order {
			err := tx.Model(&models.Card{}).
				Where("id = ? AND board_id = ?", cardID, boardID).
				Update("order_index", idx).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
