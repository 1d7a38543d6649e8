package handlers

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

func (r *EventRouter) sendChat(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code        string              `json:"code"`
		Author      string              `json:"author"`
		Text        string              `json:"text"`
		Channel     string              `json:"channel"`
		ReplyTo     *uint               `json:"replyTo"`
		Attachments []dto.AttachmentRef `json:"attachments"`
		Voice       string              `json:"voice"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxChatText)
	if payload.Code == "" || text == "" {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	channel := truncate(payload.Channel, maxChannel)
	if channel == "" {
		channel = "general"
	}

	var attachments string
	if len(payload.Attachments) > 0 {
		raw, err := json.Marshal(payload.Attachments)
		if err != nil {
			return ws.ErrInvalidPayload
		}
		attachments = string(raw)
	}

	message := models.Message{
		BoardID:     board.ID,
		Author:      truncate(payload.Author, maxAuthor),
		Text:        text,
		Channel:     channel,
		ReplyTo:     payload.ReplyTo,
		Attachments: attachments,
		VoicePath:   payload.Voice,
	}
	if err := r.db.InsertMessage(&message); err != nil {
		return err
	}

	r.logActivity(board.ID, "message_posted", client, map[string]interface{}{
		"message_id": message.ID,
		"channel":    channel,
	})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventChatAdded, formatMessage(message, nil), ws.NilConn)
	})

	return nil
}

// chatReact: вставка уникальной тройки либо её снятие; наружу
// уходит полный пересчитанный агрегат, не дельта.
func (r *EventRouter) chatReact(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Code      string `json:"code"`
		MessageID uint   `json:"messageId"`
		Emoji     string `json:"emoji"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	emoji := truncate(payload.Emoji, maxEmoji)
	if payload.MessageID == 0 || emoji == "" {
		return ws.ErrInvalidPayload
	}

	message, err := r.db.GetMessage(payload.MessageID)
	if err != nil || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}

	code := payload.Code
	if code == "" {
		board, err := r.db.GetBoard(message.BoardID)
		if err != nil {
			return ws.ErrRoomNotFound
		}
		code = board.Code
	}

	if err := r.db.ToggleMessageReaction(message.ID, client.UserID, emoji); err != nil {
		return err
	}

	reactions, err := r.db.TallyMessageReactions(message.ID)
	if err != nil {
		return err
	}

	r.logActivity(message.BoardID, "message_reaction", client, map[string]interface{}{
		"message_id": message.ID,
		"emoji":      emoji,
	})

	key := ws.BoardRoom(code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventChatReactions, map[string]interface{}{
			"messageId": message.ID,
			"reactions": reactions,
		}, ws.NilConn)
	})

	return nil
}

// chatPin переключает флаг, а не выставляет его; только модератор+.
func (r *EventRouter) chatPin(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Code      string `json:"code"`
		MessageID uint   `json:"messageId"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" || payload.MessageID == 0 {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	role, err := r.db.GetMemberRole(board.ID, client.UserID)
	if err != nil {
		return err
	}
	if !hasRole(role, "moderator") {
		return ws.ErrNoPermission
	}

	existing, err := r.db.GetMessage(payload.MessageID)
	if err != nil || existing.BoardID != board.ID || existing.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}

	message, err := r.db.ToggleMessagePinned(payload.MessageID, board.ID)
	if err != nil {
		return err
	}

	r.logActivity(board.ID, "message_pin", client, map[string]interface{}{
		"message_id": message.ID,
		"pinned":     message.Pinned,
	})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventChatPinned, map[string]interface{}{
			"message": formatMessage(*message, nil),
		}, ws.NilConn)
	})

	return nil
}

// chatEdit разрешен автору или модератору+.
func (r *EventRouter) chatEdit(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Code      string `json:"code"`
		MessageID uint   `json:"messageId"`
		Text      string `json:"text"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxChatText)
	if payload.Code == "" || payload.MessageID == 0 || text == "" {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	message, err := r.db.GetMessage(payload.MessageID)
	if err != nil || message.BoardID != board.ID || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}

	if err := r.authorizeChatChange(board.ID, message, client); err != nil {
		return err
	}

	updated, err := r.db.SetMessageEdited(message.ID, text)
	if err != nil {
		return err
	}

	r.logActivity(board.ID, "message_edit", client, map[string]interface{}{"message_id": message.ID})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventChatUpdated, formatMessage(*updated, nil), ws.NilConn)
	})

	return nil
}

// chatDelete ставит deleted_at (soft delete), запись остается в базе.
func (r *EventRouter) chatDelete(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Code      string `json:"code"`
		MessageID uint   `json:"messageId"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" || payload.MessageID == 0 {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	message, err := r.db.GetMessage(payload.MessageID)
	if err != nil || message.BoardID != board.ID || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}

	if err := r.authorizeChatChange(board.ID, message, client); err != nil {
		return err
	}

	if err := r.db.SetMessageDeleted(message.ID); err != nil {
		return err
	}

	r.logActivity(board.ID, "message_delete", client, map[string]interface{}{"message_id": message.ID})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventChatDeleted, map[string]interface{}{"id": message.ID}, ws.NilConn)
	})

	return nil
}

// authorizeChatChange: действующий должен быть автором сообщения
// либо иметь роль не ниже модератора. Наружу причина не уточняется.
func (r *EventRouter) authorizeChatChange(boardID uuid.UUID, message *models.Message, client *ws.Client) error {
	if message.Author == client.Username && client.Username != "" {
		return nil
	}

	role, err := r.db.GetMemberRole(boardID, client.UserID)
	if err != nil {
		return err
	}
	if !hasRole(role, "moderator") {
		return ws.ErrNoPermission
	}
	return nil
}
