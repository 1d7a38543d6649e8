package handlers

import (
	"log"
	"strings"

	"github.com/l3nnardwlg/echoboard/internal/database"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

// EventRouter принимает все входящие realtime-события и раскидывает
// их по обработчикам. Общий контракт обработчика: валидация и
// обрезка полей, durable-мутация через Storage Gateway, обновление
// эфемерного состояния под блокировкой комнаты, рассылка.
type EventRouter struct {
	db  *database.Database
	hub *ws.Hub
}

func NewEventRouter(db *database.Database, hub *ws.Hub) *EventRouter {
	r := &EventRouter{db: db, hub: hub}
	hub.SetDisconnectHandler(r.HandleDisconnect)
	return r
}

func (r *EventRouter) HandleEvent(client *ws.Client, env *ws.Envelope) error {
	switch env.Event {
	case ws.EventJoinBoard:
		return r.joinBoard(client, env)
	case ws.EventLeave:
		return r.leaveBoard(client, env)
	case ws.EventCreateCard:
		return r.createCard(client, env)
	case ws.EventVoteCard:
		return r.voteCard(client, env)
	case ws.EventSendChat:
		return r.sendChat(client, env)
	case ws.EventChatReact:
		return r.chatReact(client, env)
	case ws.EventChatPin:
		return r.chatPin(client, env)
	case ws.EventChatEdit:
		return r.chatEdit(client, env)
	case ws.EventChatDelete:
		return r.chatDelete(client, env)
	case ws.EventTyping:
		return r.typing(client, env, true)
	case ws.EventStopTyping:
		return r.typing(client, env, false)
	case ws.EventCursorMove:
		return r.cursorMove(client, env)
	case ws.EventSetTheme:
		return r.setTheme(client, env)
	case ws.EventSetTitle:
		return r.setTitle(client, env)
	case ws.EventDMJoin:
		return r.dmJoin(client, env)
	case ws.EventDMSend:
		return r.dmSend(client, env)
	case ws.EventDMTyping:
		return r.dmTyping(client, env, true)
	case ws.EventDMStopType:
		return r.dmTyping(client, env, false)
	case ws.EventDMReact:
		return r.dmReact(client, env)
	case ws.EventDMEdit:
		return r.dmEdit(client, env)
	case ws.EventDMDelete:
		return r.dmDelete(client, env)
	case ws.EventDMRead:
		return r.dmRead(client, env)
	case ws.EventGroupJoin:
		return r.groupJoin(client, env)
	case ws.EventGroupSend:
		return r.groupSend(client, env)
	case ws.EventGroupTyping:
		return r.groupTyping(client, env, true)
	case ws.EventGroupStop:
		return r.groupTyping(client, env, false)
	default:
		log.Printf("Unknown event: %s", env.Event)
		return nil
	}
}

// HandleDisconnect чистит все комнаты соединения одним логическим
// шагом на комнату: членство, typing и курсор уходят вместе, после
// чего комната получает свежие presence/typing/cursors.
func (r *EventRouter) HandleDisconnect(client *ws.Client, rooms []string) {
	registry := r.hub.Registry()

	for _, key := range rooms {
		key := key
		r.hub.WithRoom(key, func() {
			registry.Leave(key, client.ID)

			if strings.HasPrefix(key, "board_") {
				code := strings.TrimPrefix(key, "board_")
				r.hub.Publish(key, ws.EventPresence, presencePayload(registry, key), client.ID)
				r.hub.Publish(key, ws.EventTyping, typingPayload(registry, key, code), client.ID)
				r.hub.Publish(key, ws.EventCursors, registry.Cursors(key), client.ID)
			}
		})

		// Durable-запись "leave" — вне блокировки комнаты.
		if strings.HasPrefix(key, "board_") && client.Authenticated() {
			code := strings.TrimPrefix(key, "board_")
			board, err := r.db.GetBoardByCode(code)
			if err != nil {
				continue
			}
			userID := client.UserID
			if err := r.db.RecordPresence(board.ID, &userID, "leave", ""); err != nil {
				log.Printf("Failed to record leave for %s: %v", code, err)
			}
		}
	}
}
