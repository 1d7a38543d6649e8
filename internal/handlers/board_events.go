package handlers

import (
	"log"

	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

func presencePayload(registry *ws.Registry, key string) map[string]interface{} {
	return map[string]interface{}{
		"count": registry.Count(key),
		"names": registry.Names(key),
	}
}

func typingPayload(registry *ws.Registry, key, code string) map[string]interface{} {
	return map[string]interface{}{
		"code":    code,
		"authors": registry.TypingAuthors(key),
	}
}

// joinBoard: снапшот читается уже под scope комнаты, чтобы запись,
// закоммиченная между чтением и входом в членство, не потерялась для
// новичка. Снапшот ставится в очередь соединения до входа в членство,
// поэтому ни один последующий broadcast его не обгонит.
func (r *EventRouter) joinBoard(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code       string `json:"code"`
		ClientName string `json:"clientName"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	clientName := truncate(payload.ClientName, maxClientName)
	if clientName == "" {
		clientName = "Anon"
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	if client.Authenticated() {
		if err := r.db.EnsureMember(board.ID, client.UserID, "member"); err != nil {
			return err
		}
		userID := client.UserID
		if err := r.db.RecordPresence(board.ID, &userID, "join", clientName); err != nil {
			log.Printf("Failed to record join: %v", err)
		}
	}

	key := ws.BoardRoom(payload.Code)
	var stateErr error
	r.hub.WithRoom(key, func() {
		state, err := r.buildBoardState(board, client)
		if err != nil {
			stateErr = err
			return
		}
		if err := client.SendEvent(ws.EventBoardState, state); err != nil {
			log.Printf("Failed to send board state to %s: %v", client.ID, err)
		}
		r.hub.JoinRoom(client, key, clientName)
		r.hub.Publish(key, ws.EventPresence, presencePayload(r.hub.Registry(), key), ws.NilConn)
	})

	return stateErr
}

func (r *EventRouter) leaveBoard(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code string `json:"code"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	key := ws.BoardRoom(payload.Code)
	if !client.IsInRoom(key) {
		return nil
	}

	registry := r.hub.Registry()
	r.hub.WithRoom(key, func() {
		r.hub.LeaveRoom(client, key)
		r.hub.Publish(key, ws.EventPresence, presencePayload(registry, key), ws.NilConn)
		r.hub.Publish(key, ws.EventTyping, typingPayload(registry, key, payload.Code), client.ID)
		r.hub.Publish(key, ws.EventCursors, registry.Cursors(key), client.ID)
	})

	if client.Authenticated() {
		if board, err := r.db.GetBoardByCode(payload.Code); err == nil {
			userID := client.UserID
			r.db.RecordPresence(board.ID, &userID, "leave", "")
		}
	}

	return nil
}

func (r *EventRouter) createCard(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code       string `json:"code"`
		Author     string `json:"author"`
		Text       string `json:"text"`
		Tag        string `json:"tag"`
		Attachment string `json:"attachment"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	text := truncate(payload.Text, maxCardText)
	if payload.Code == "" || text == "" {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	card := models.Card{
		BoardID:        board.ID,
		Author:         truncate(payload.Author, maxAuthor),
		Text:           text,
		Tag:            truncate(payload.Tag, maxTag),
		AttachmentPath: payload.Attachment,
	}
	if err := r.db.InsertCard(&card); err != nil {
		return err
	}

	r.logActivity(board.ID, "card_created", client, map[string]interface{}{
		"card_id": card.ID,
		"text":    truncate(text, 120),
	})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventCardAdded, formatCard(card), ws.NilConn)
	})

	return nil
}

// voteCard — безусловный инкремент: защиты от повторного голоса нет.
func (r *EventRouter) voteCard(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code   string `json:"code"`
		CardID uint   `json:"cardId"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" || payload.CardID == 0 {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	card, err := r.db.VoteCard(payload.CardID)
	if err != nil {
		return ws.ErrMessageNotFound
	}

	r.logActivity(board.ID, "card_voted", client, map[string]interface{}{"card_id": card.ID})

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventCardUpdated, formatCard(*card), ws.NilConn)
	})

	return nil
}

func (r *EventRouter) setTheme(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code  string `json:"code"`
		Theme string `json:"theme"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}

	theme := truncate(payload.Theme, maxTag)
	if theme == "" {
		theme = "ocean"
	}
	if !allowedThemes[theme] {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	if err := r.db.UpdateBoardTheme(board.ID, theme); err != nil {
		return err
	}

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventThemeChanged, map[string]string{"theme": theme}, ws.NilConn)
	})

	return nil
}

func (r *EventRouter) setTitle(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code  string `json:"code"`
		Title string `json:"title"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" {
		return ws.ErrInvalidPayload
	}

	board, err := r.db.GetBoardByCode(payload.Code)
	if err != nil {
		return ws.ErrRoomNotFound
	}

	title := truncate(payload.Title, maxTitle)
	if title == "" {
		title = "Team Board"
	}

	if err := r.db.UpdateBoardTitle(board.ID, title); err != nil {
		return err
	}

	key := ws.BoardRoom(payload.Code)
	r.hub.WithRoom(key, func() {
		r.hub.Publish(key, ws.EventTitleChanged, map[string]string{"title": title}, ws.NilConn)
	})

	return nil
}

// typing: last-write-wins по соединению; отправитель своего эха
// не получает.
func (r *EventRouter) typing(client *ws.Client, env *ws.Envelope, start bool) error {
	var payload struct {
		Code   string `json:"code"`
		Author string `json:"author"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" {
		return nil
	}

	author := truncate(payload.Author, maxAuthor)
	if author == "" {
		author = "Anon"
	}

	key := ws.BoardRoom(payload.Code)
	registry := r.hub.Registry()

	r.hub.WithRoom(key, func() {
		if start {
			registry.SetTyping(key, client.ID, author)
		} else {
			registry.ClearTyping(key, client.ID)
		}
		r.hub.Publish(key, ws.EventTyping, typingPayload(registry, key, payload.Code), client.ID)
	})

	return nil
}

func (r *EventRouter) cursorMove(client *ws.Client, env *ws.Envelope) error {
	var payload struct {
		Code   string `json:"code"`
		Author string `json:"author"`
		Color  string `json:"color"`
		Pos    struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"pos"`
	}
	if err := ws.DecodePayload(env, &payload); err != nil {
		return err
	}
	if payload.Code == "" {
		return nil
	}

	author := truncate(payload.Author, maxAuthor)
	if author == "" {
		author = "Anon"
	}

	key := ws.BoardRoom(payload.Code)
	registry := r.hub.Registry()

	r.hub.WithRoom(key, func() {
		registry.SetCursor(key, client.ID, ws.Cursor{
			Author: author,
			X:      payload.Pos.X,
			Y:      payload.Pos.Y,
			Color:  payload.Color,
		})
		r.hub.Publish(key, ws.EventCursors, registry.Cursors(key), client.ID)
	})

	return nil
}

// logActivity пишет строку журнала; провал не срывает обработчик.
func (r *EventRouter) logActivity(boardID uuid.UUID, kind string, client *ws.Client, payload map[string]interface{}) {
	var userID *uuid.UUID
	if client.Authenticated() {
		id := client.UserID
		userID = &id
	}
	if err := r.db.LogActivity(boardID, kind, userID, payload); err != nil {
		log.Printf("Failed to log %s: %v", kind, err)
	}
}
