package handlers

import (
	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

func (r *EventRouter) groupJoin(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Slug string `json:"slug"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	room, err := r.db.GetGroupBySlug(payload.Slug)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	// История читается под scope комнаты: сообщение, закоммиченное
	// параллельным groupSend, либо попадет в историю, либо придет
	// broadcast-ом после входа.
	key := ws.GroupRoom(room.Slug)
	var joinErr error
	r.hub.WithRoom(key, func() {
		messages, err := r.db.ListGroupMessages(room.ID, groupHistoryLimit)
		if err != nil {
			joinErr = err
			return
		}

		history := make([]dto.GroupMessageResponse, len(messages))
		for i, m := range messages {
			history[i] = formatGroupMessage(m)
		}

		client.SendEvent(ws.EventGroupHistory, map[string]interface{}{
			"room":     room.Slug,
			"title":    room.Title,
			"messages": history,
		})
		r.hub.JoinRoom(client, key, client.Username)
	})

	return joinErr
}

func (r *EventRouter) groupSend(client *ws.Client, env *ws.Envelope) error {
	if !client.Authenticated() {
		return ws.ErrAuthRequired
	}

	var payload struct {
		Slug string `json:"slug"`
		Text string `json:"text"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxGroupText)
	if text == "" {
		return ws.ErrInvalidPayload
	}

	room, err := r.db.GetGroupBySlug(payload.Slug)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	senderID := client.UserID
	message := models.GroupMessage{
		RoomID:     room.ID,
		SenderID:   &senderID,
		SenderName: client.Username,
		Text:       text,
	}
	if err := r.db.InsertGroupMessage(&message); err != nil {
		return err
	}

	key := ws.GroupRoom(room.Slug)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventGroupNew, formatGroupMessage(message), ws.NilConn)
	})

	return nil
}

func (r *EventRouter) groupTyping(client *ws.Client, env *ws.Envelope, start bool) error {
	if !client.Authenticated() {
		return nil
	}

	var payload struct {
		Slug string `json:"slug"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	key := ws.GroupRoom(payload.Slug)
	registry := r.hub.Registry()
	if !registry.Contains(key, client.ID) {
		return nil
	}

	r.hub.WithRoom(key, func() {
		if start {
			registry.SetTyping(key, client.ID, client.Username)
		} else {
			registry.ClearTyping(key, client.ID)
		}
		r.hub.Publish(key, ws.EventGroupTyping, map[string]interface{}{
			"room":    payload.Slug,
			"authors": registry.TypingAuthors(key),
		}, client.ID)
	})

	return nil
}
