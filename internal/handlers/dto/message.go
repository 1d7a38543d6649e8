package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/database"
)

// Attachment — вложение в исходящем виде: stored-path уже развернут в URL.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Mime string `json:"mime"`
}

// AttachmentRef — вложение во входящем виде (имя файла в хранилище).
type AttachmentRef struct {
	Name   string `json:"name"`
	Stored string `json:"stored"`
	Mime   string `json:"mime"`
}

type CardResponse struct {
	ID            uint      `json:"id"`
	BoardID       uuid.UUID `json:"board_id"`
	Author        string    `json:"author"`
	Text          string    `json:"text"`
	Tag           string    `json:"tag"`
	Votes         int       `json:"votes"`
	OrderIndex    *int      `json:"order_index"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID        uint                     `json:"id"`
	BoardID   uuid.UUID                `json:"board_id"`
	Author    string                   `json:"author"`
	Text      string                   `json:"text"`
	Channel   string                   `json:"channel"`
	ReplyTo   *uint                    `json:"reply_to,omitempty"`
	Pinned    bool                     `json:"pinned"`
	Files     []Attachment             `json:"attachments"`
	VoiceURL  string                   `json:"voice_url,omitempty"`
	EditedAt  *time.Time               `json:"edited_at,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	Reactions []database.ReactionCount `json:"reactions"`
}

type DMResponse struct {
	ID         uint       `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Sender     string     `json:"sender"`
	Text       string     `json:"text"`
	ReplyTo    *uint      `json:"reply_to,omitempty"`
	VoiceURL   string     `json:"voice_url,omitempty"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type GroupMessageResponse struct {
	ID         uint       `json:"id"`
	RoomID     uint       `json:"room_id"`
	SenderName string     `json:"sender_name"`
	Text       string     `json:"text"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BoardState — снапшот комнаты для только что вошедшего соединения.
type BoardState struct {
	Cards           []CardResponse          `json:"cards"`
	Messages        []MessageResponse       `json:"messages"`
	Theme           string                  `json:"theme"`
	Title           string                  `json:"title"`
	Board           BoardMeta               `json:"board"`
	Members         []database.MemberInfo   `json:"members"`
	Activity        []database.ActivityInfo `json:"activity"`
	PresenceHistory []database.PresenceInfo `json:"presenceHistory"`
	Channels        []string                `json:"channels"`
	Role            string                  `json:"role"`
}

type BoardMeta struct {
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Code       string `json:"code"`
}
