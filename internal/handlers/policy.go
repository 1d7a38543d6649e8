package handlers

import (
	"encoding/json"
	"strings"

	"github.com/l3nnardwlg/echoboard/internal/database"
	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
)

// Жесткие лимиты свободного текста. Лишнее молча обрезается,
// запрос не отклоняется.
const (
	maxCardText   = 280
	maxChatText   = 500
	maxDMText     = 1000
	maxGroupText  = 800
	maxTag        = 16
	maxAuthor     = 32
	maxEmoji      = 16
	maxTitle      = 80
	maxChannel    = 32
	maxClientName = 24
)

var allowedThemes = map[string]bool{
	"ocean":  true,
	"mint":   true,
	"sunset": true,
	"violet": true,
	"slate":  true,
}

var rolePower = map[string]int{
	"viewer":    0,
	"member":    1,
	"moderator": 2,
	"owner":     3,
}

// hasRole: строгий порядок owner > moderator > member > viewer.
// Пустая роль считается member.
func hasRole(role, minimum string) bool {
	if role == "" {
		role = "member"
	}
	return rolePower[role] >= rolePower[minimum]
}

// truncate обрезает строку до n рун после trim.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func boardFileURL(name string) string {
	if name == "" {
		return ""
	}
	return "/files/board/" + name
}

func voiceFileURL(name string) string {
	if name == "" {
		return ""
	}
	return "/files/voice/" + name
}

func formatCard(card models.Card) dto.CardResponse {
	return dto.CardResponse{
		ID:            card.ID,
		BoardID:       card.BoardID,
		Author:        card.Author,
		Text:          card.Text,
		Tag:           card.Tag,
		Votes:         card.Votes,
		OrderIndex:    card.OrderIndex,
		AttachmentURL: boardFileURL(card.AttachmentPath),
		CreatedAt:     card.CreatedAt,
	}
}

// formatMessage разворачивает stored-пути вложений и голосовой
// записи в URL и подвешивает реакции.
func formatMessage(m models.Message, reactions []database.ReactionCount) dto.MessageResponse {
	files := make([]dto.Attachment, 0)
	if m.Attachments != "" {
		var refs []dto.AttachmentRef
		if err := json.Unmarshal([]byte(m.Attachments), &refs); err == nil {
			for _, ref := range refs {
				files = append(files, dto.Attachment{
					Name: ref.Name,
					URL:  boardFileURL(ref.Stored),
					Mime: ref.Mime,
				})
			}
		}
	}

	if reactions == nil {
		reactions = make([]database.ReactionCount, 0)
	}

	return dto.MessageResponse{
		ID:        m.ID,
		BoardID:   m.BoardID,
		Author:    m.Author,
		Text:      m.Text,
		Channel:   m.Channel,
		ReplyTo:   m.ReplyTo,
		Pinned:    m.Pinned,
		Files:     files,
		VoiceURL:  voiceFileURL(m.VoicePath),
		EditedAt:  m.EditedAt,
		CreatedAt: m.CreatedAt,
		Reactions: reactions,
	}
}

func formatDM(m models.DirectMessage, senderName string) dto.DMResponse {
	return dto.DMResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Sender:     senderName,
		Text:       m.Text,
		ReplyTo:    m.ReplyTo,
		VoiceURL:   voiceFileURL(m.VoicePath),
		EditedAt:   m.EditedAt,
		ReadAt:     m.ReadAt,
		CreatedAt:  m.CreatedAt,
	}
}

func formatGroupMessage(m models.GroupMessage) dto.GroupMessageResponse {
	return dto.GroupMessageResponse{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderName: m.SenderName,
		Text:       m.Text,
		EditedAt:   m.EditedAt,
		CreatedAt:  m.CreatedAt,
	}
}
