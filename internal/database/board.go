package database

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

type boardTemplate struct {
	Title string
	Theme string
	Cards [][3]string // author, text, tag
}

var boardTemplates = map[string]boardTemplate{
	"retro": {
		Title: "Sprint Retrospective",
		Theme: "mint",
		Cards: [][3]string{
			{"Alice", "What went well this sprint?", "🟢"},
			{"Bob", "What slowed us down?", "❓"},
			{"Carol", "Action items for next sprint", "⚡️"},
		},
	},
	"kanban": {
		Title: "Kanban Standup",
		Theme: "violet",
		Cards: [][3]string{
			{"Team", "Todo", "🟡"},
			{"Team", "In Progress", "⚡️"},
			{"Team", "Blocked", "🔴"},
		},
	},
	"brainstorm": {
		Title: "Brainstorm Board",
		Theme: "sunset",
		Cards: [][3]string{
			{"Dana", "Wild ideas", "✨"},
			{"Eli", "Opportunities", "🟢"},
			{"Fran", "Risks", "🔴"},
		},
	},
}

func (d *Database) GetBoardByCode(code string) (*models.Board, error) {
	var board models.Board
	if err := d.db.Where("code = ?", code).First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (d *Database) GetBoard(id uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := d.db.First(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateBoard создает доску с коротким hex-кодом. Владелец (если есть)
// сразу получает роль owner, шаблон сидит стартовые карточки.
func (d *Database) CreateBoard(ownerID *uuid.UUID, templateKey string) (*models.Board, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	board := models.Board{
		ID:       uuid.New(),
		Code:     hex.EncodeToString(buf),
		Template: templateKey,
		OwnerID:  ownerID,
	}
	if err := d.db.Create(&board).Error; err != nil {
		return nil, err
	}

	if ownerID != nil {
		member := models.BoardMember{
			BoardID:  board.ID,
			UserID:   *ownerID,
			Role:     "owner",
			JoinedAt: time.Now(),
		}
		if err := d.db.Save(&member).Error; err != nil {
			return nil, err
		}
	}

	if templateKey != "" {
		if err := d.applyBoardTemplate(&board, templateKey); err != nil {
			return nil, err
		}
	}

	return &board, nil
}

func (d *Database) applyBoardTemplate(board *models.Board, templateKey string) error {
	tpl, ok := boardTemplates[templateKey]
	if !ok {
		return nil
	}

	if tpl.Title != "" {
		board.Title = tpl.Title
	}
	if tpl.Theme != "" {
		board.Theme = tpl.Theme
	}
	if err := d.db.Save(board).Error; err != nil {
		return err
	}

	for i, card := range tpl.Cards {
		idx := i
		c := models.Card{
			BoardID:    board.ID,
			Author:     card[0],
			Text:       card[1],
			Tag:        card[2],
			OrderIndex: &idx,
		}
		if err := d.db.Create(&c).Error; err != nil {
			return err
		}
	}

	return nil
}

func (d *Database) UpdateBoardTheme(boardID uuid.UUID, theme string) error {
	return d.db.Model(&models.Board{}).Where("id = ?", boardID).Update("theme", theme).Error
}

func (d *Database) UpdateBoardTitle(boardID uuid.UUID, title string) error {
	return d.db.Model(&models.Board{}).Where("id = ?", boardID).Update("title", title).Error
}

func (d *Database) GetUserBoards(userID uuid.UUID) ([]models.Board, error) {
	var boards []models.Board
	err := d.db.
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", userID).
		Order("boards.created_at DESC").
		Find(&boards).Error
	return boards, err
}
