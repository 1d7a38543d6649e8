package database

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

// ActivityInfo — строка журнала активности с юзернеймом автора.
type ActivityInfo struct {
	ID        uint   `json:"id"`
	Kind      string `json:"kind"`
	Payload   string `json:"payload"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type PresenceInfo struct {
	ID        uint   `json:"id"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

func (d *Database) LogActivity(boardID uuid.UUID, kind string, userID *uuid.UUID, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.db.Create(&models.BoardActivity{
		BoardID: boardID,
		UserID:  userID,
		Kind:    kind,
		Payload: string(raw),
	}).Error
}

func (d *Database) ListActivity(boardID uuid.UUID, limit int) ([]ActivityInfo, error) {
	rows := make([]ActivityInfo, 0)
	err := d.db.Model(&models.BoardActivity{}).
		Select("board_activities.id, board_activities.kind, board_activities.payload, users.username, board_activities.created_at").
		Joins("LEFT JOIN users ON users.id = board_activities.user_id").
		Where("board_activities.board_id = ?", boardID).
		Order("board_activities.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (d *Database) RecordPresence(boardID uuid.UUID, userID *uuid.UUID, action, details string) error {
	return d.db.Create(&models.PresenceEntry{
		BoardID: boardID,
		UserID:  userID,
		Action:  action,
		Details: details,
	}).Error
}

func (d *Database) ListPresenceHistory(boardID uuid.UUID, limit int) ([]PresenceInfo, error) {
	rows := make([]PresenceInfo, 0)
	err := d.db.Model(&models.PresenceEntry{}).
		Select("presence_entries.id, presence_entries.action, presence_entries.details, users.username, presence_entries.created_at").
		Joins("LEFT JOIN users ON users.id = presence_entries.user_id").
		Where("presence_entries.board_id = ?", boardID).
		Order("presence_entries.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
