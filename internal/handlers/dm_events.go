package handlers

import (
	"log"

	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

// dmJoin: приватный снапшот переписки читается под scope комнаты и
// уходит до допуска в членство, как и на досках.
func (r *EventRouter) dmJoin(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Other string `json:"other"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	other, err := r.db.FindUserByUsername(payload.Other)
	if err != nil {
		return ws.ErrUserNotFound
	}

	key := ws.DMRoom(client.UserID, other.ID)
	var joinErr error
	r.hub.WithRoom(key, func() {
		messages, err := r.db.ListDirectMessages(client.UserID, other.ID, dmHistoryLimit)
		if err != nil {
			joinErr = err
			return
		}

		history := make([]dto.DMResponse, len(messages))
		for i, m := range messages {
			senderName := client.Username
			if m.SenderID == other.ID {
				senderName = other.Username
			}
			history[i] = formatDM(m, senderName)
		}

		client.SendEvent(ws.EventDMPresence, map[string]interface{}{
			"other_online": r.hub.IsUserOnline(other.ID),
		})
		client.SendEvent(ws.EventDMHistory, history)
		r.hub.JoinRoom(client, key, client.Username)
	})

	return joinErr
}

func (r *EventRouter) dmSend(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		To      string `json:"to"`
		Text    string `json:"text"`
		ReplyTo *uint  `json:"replyTo"`
		Voice   string `json:"voice"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxDMText)
	if payload.To == "" || (text == "" && payload.Voice == "") {
		return ws.ErrInvalidPayload
	}

	other, err := r.db.FindUserByUsername(payload.To)
	if err != nil {
		return ws.ErrUserNotFound
	}

	message := models.DirectMessage{
		SenderID:   client.UserID,
		ReceiverID: other.ID,
		Text:       text,
		ReplyTo:    payload.ReplyTo,
		VoicePath:  payload.Voice,
	}
	if err := r.db.InsertDirectMessage(&message); err != nil {
		return err
	}

	// Офлайн-получателю остается нотификация на следующий вход.
	if !r.hub.IsUserOnline(other.ID) {
		if err := r.db.AddNotification(other.ID, client.Username+" sent you a message", "/dm/"+client.Username); err != nil {
			log.Printf("Failed to add notification: %v", err)
		}
	}

	key := ws.DMRoom(client.UserID, other.ID)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventDMNew, formatDM(message, client.Username), ws.NilConn)
	})

	return nil
}

func (r *EventRouter) dmTyping(client *ws.Client, env *ws.Envelope, start bool) error {
	if !client.Authenticated() {
		return nil
	}

	var payload struct {
		To string `json:"to"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	other, err := r.db.FindUserByUsername(payload.To)
	if err != nil {
		return nil
	}

	key := ws.DMRoom(client.UserID, other.ID)
	registry := r.hub.Registry()

	r.hub.WithRoom(key, func() {
		if start {
			registry.SetTyping(key, client.ID, client.Username)
		} else {
			registry.ClearTyping(key, client.ID)
		}
		r.hub.Publish(key, ws.EventDMTyping, map[string]interface{}{
			"authors": registry.TypingAuthors(key),
		}, client.ID)
	})

	return nil
}

func (r *EventRouter) dmReact(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
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

	message, err := r.db.GetDirectMessage(payload.MessageID)
	if err != nil || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}

	if err := r.db.ToggleDMReaction(message.ID, client.UserID, emoji); err != nil {
		return err
	}

	reactions, err := r.db.TallyDMReactions(message.ID)
	if err != nil {
		return err
	}

	key := ws.DMRoom(message.SenderID, message.ReceiverID)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventDMReactions, map[string]interface{}{
			"messageId": message.ID,
			"reactions": reactions,
		}, ws.NilConn)
	})

	return nil
}

// dmEdit/dmDelete: в личке нет ролей, гейт один — собственное
// сообщение.
func (r *EventRouter) dmEdit(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		MessageID uint   `json:"messageId"`
		Text      string `json:"text"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxDMText)
	if payload.MessageID == 0 || text == "" {
		return ws.ErrInvalidPayload
	}

	message, err := r.db.GetDirectMessage(payload.MessageID)
	if err != nil || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}
	if message.SenderID != client.UserID {
		return ws.ErrNoPermission
	}

	updated, err := r.db.SetDirectMessageEdited(message.ID, text)
	if err != nil {
		return err
	}

	key := ws.DMRoom(updated.SenderID, updated.ReceiverID)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventDMUpdated, formatDM(*updated, client.Username), ws.NilConn)
	})

	return nil
}

func (r *EventRouter) dmDelete(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		MessageID uint `json:"messageId"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.MessageID == 0 {
		return ws.ErrInvalidPayload
	}

	message, err := r.db.GetDirectMessage(payload.MessageID)
	if err != nil || message.DeletedAt != nil {
		return ws.ErrMessageNotFound
	}
	if message.SenderID != client.UserID {
		return ws.ErrNoPermission
	}

	if err := r.db.SetDirectMessageDeleted(message.ID); err != nil {
		return err
	}

	key := ws.DMRoom(message.SenderID, message.ReceiverID)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventDMDeleted, map[string]interface{}{"id": message.ID}, ws.NilConn)
	})

	return nil
}

// dmRead: квитанцию может поставить только получатель.
func (r *EventRouter) dmRead(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return nil
	}

	var payload struct {
		MessageID uint `json:"messageId"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.MessageID == 0 {
		return nil
	}

	message, err := r.db.GetDirectMessage(payload.MessageID)
	if err != nil {
		return nil
	}
	if message.ReceiverID != client.UserID {
		return nil
	}

	if err := r.db.MarkDirectMessageRead(message.ID, client.UserID); err != nil {
		return err
	}

	key := ws.DMRoom(message.SenderID, message.ReceiverID)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventDMRead, map[string]interface{}{"id": message.ID}, ws.NilConn)
	})

	return nil
}
