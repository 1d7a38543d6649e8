package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

func (d *Database) CreateInvite(boardID uuid.UUID, token string, expiresAt time.Time, createdBy uuid.UUID) (*models.BoardInvite, error) {
	invite := models.BoardInvite{
		BoardID:   boardID,
		Token:     token,
		ExpiresAt: &expiresAt,
		CreatedBy: &createdBy,
	}
	if err := d.db.Create(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (d *Database) GetInviteByToken(token string) (*models.BoardInvite, error) {
	var invite models.BoardInvite
	if err := d.db.Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// AcceptContacts переводит пару контактов в accepted в обе стороны,
// создавая недостающие строки (погашение инвайта связывает
// пригласившего и приглашенного).
func (d *Database) AcceptContacts(a, b uuid.UUID) error {
	if err := d.acceptContact(a, b); err != nil {
		return err
	}
	return d.acceptContact(b, a)
}

func (d *Database) acceptContact(userID, contactID uuid.UUID) error {
	res := d.db.Model(&models.Contact{}).
		Where("user_id = ? AND contact_id = ?", userID, contactID).
		Update("status", "accepted")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return d.db.Create(&models.Contact{
			UserID:    userID,
			ContactID: contactID,
			Status:    "accepted",
		}).Error
	}
	return nil
}
