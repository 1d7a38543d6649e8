package websocket

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Имена событий (клиент -> сервер)
const (
	EventJoinBoard   = "join_board"
	EventLeave       = "leave"
	EventCreateCard  = "create_card"
	EventVoteCard    = "vote_card"
	EventSendChat    = "send_chat"
	EventChatReact   = "chat_react"
	EventChatPin     = "chat_pin"
	EventChatEdit    = "chat_edit"
	EventChatDelete  = "chat_delete"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventCursorMove  = "cursor_move"
	EventSetTheme    = "set_theme"
	EventSetTitle    = "set_title"
	EventDMJoin      = "dm_join"
	EventDMSend      = "dm_send"
	EventDMTyping    = "dm_typing"
	EventDMStopType  = "dm_stop_typing"
	EventDMReact     = "dm_react"
	EventDMEdit      = "dm_edit"
	EventDMDelete    = "dm_delete"
	EventDMRead      = "dm_read"
	EventGroupJoin   = "group_join"
	EventGroupSend   = "group_send"
	EventGroupTyping = "group_typing"
	EventGroupStop   = "group_stop_typing"
)

// Имена событий (сервер -> клиент)
const (
	EventBoardState     = "board_state"
	EventCardAdded      = "card_added"
	EventCardUpdated    = "card_updated"
	EventCardsReordered = "cards_reordered"
	EventChatAdded      = "chat_added"
	EventChatReactions  = "chat_reactions"
	EventChatPinned     = "chat_pinned"
	EventChatUpdated    = "chat_updated"
	EventChatDeleted    = "chat_deleted"
	EventCursors        = "cursors"
	EventPresence       = "presence"
	EventThemeChanged   = "theme_changed"
	EventTitleChanged   = "title_changed"
	EventDMPresence     = "dm_presence"
	EventDMHistory      = "dm_history"
	EventDMNew          = "dm_new"
	EventDMReactions    = "dm_reactions"
	EventDMUpdated      = "dm_updated"
	EventDMDeleted      = "dm_deleted"
	EventGroupHistory   = "group_history"
	EventGroupNew       = "group_new"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventError          = "error"
)

// NilConn — «без исключений» для Publish.
var NilConn uuid.UUID

// Envelope — кадр протокола: имя события плюс произвольный payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, payload interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// BoardRoom — ключ комнаты доски по её коду.
func BoardRoom(code string) string {
	return "board_" + code
}

// DMRoom — стабильный ключ пары: идентификаторы сортируются,
// чтобы обе стороны попадали в одну комнату.
func DMRoom(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return fmt.Sprintf("dm_%s_%s", ids[0], ids[1])
}

// GroupRoom — ключ групповой комнаты по слагу.
func GroupRoom(slug string) string {
	return "group_" + slug
}
