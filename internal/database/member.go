package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

// MemberInfo — участник доски вместе с данными профиля.
type MemberInfo struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Badge    string    `json:"badge"`
	Status   string    `json:"status"`
	Role     string    `json:"role"`
}

// EnsureMember добавляет участника, не трогая уже существующую роль.
func (d *Database) EnsureMember(boardID, userID uuid.UUID, role string) error {
	var existing models.BoardMember
	err := d.db.
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return d.db.Create(&models.BoardMember{
		BoardID:  boardID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}).Error
}

func (d *Database) SetMemberRole(boardID, userID uuid.UUID, role string) error {
	res := d.db.Model(&models.BoardMember{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return d.db.Create(&models.BoardMember{
			BoardID:  boardID,
			UserID:   userID,
			Role:     role,
			JoinedAt: time.Now(),
		}).Error
	}
	return nil
}

// GetMemberRole возвращает "" для не-участника.
func (d *Database) GetMemberRole(boardID, userID uuid.UUID) (string, error) {
	var member models.BoardMember
	err := d.db.
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (d *Database) ListMembers(boardID uuid.UUID) ([]MemberInfo, error) {
	members := make([]MemberInfo, 0)
	err := d.db.Model(&models.BoardMember{}).
		Select("board_members.user_id, users.username, users.avatar_url as avatar, users.badge, users.status, board_members.role").
		Joins("LEFT JOIN users ON users.id = board_members.user_id").
		Where("board_members.board_id = ?", boardID).
		Order("board_members.role DESC, users.username").
		Scan(&members).Error
	return members, err
}
