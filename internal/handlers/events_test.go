package handlers

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/l3nnardwlg/echoboard/internal/database"
	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

var testSeq int64

type testEnv struct {
	db     *database.Database
	hub    *ws.Hub
	router *EventRouter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", atomic.AddInt64(&testSeq, 1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db := database.NewDatabase(gdb)
	hub := ws.NewHub(ws.NewRegistry())
	go hub.Run()
	t.Cleanup(hub.Stop)

	return &testEnv{db: db, hub: hub, router: NewEventRouter(db, hub)}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := e.db.SaveUser(user); err != nil {
		t.Fatalf("save user %s: %v", name, err)
	}
	return user
}

// connect регистрирует авторизованное соединение и дожидается, пока
// hub его учтет.
func (e *testEnv) connect(t *testing.T, user *models.User) *ws.Client {
	t.Helper()
	client := ws.NewClient(e.hub, nil, user.ID, user.Username)
	e.hub.Register(client)
	waitFor(t, func() bool { return e.hub.IsUserOnline(user.ID) })
	return client
}

// connectAnon регистрирует анонимное соединение; завершение
// регистрации подтверждается через авторизованного "маячка",
// встающего в ту же очередь следом.
func (e *testEnv) connectAnon(t *testing.T) *ws.Client {
	t.Helper()
	client := ws.NewClient(e.hub, nil, uuid.Nil, "")
	e.hub.Register(client)

	sentinel := e.user(t, fmt.Sprintf("sentinel%d", atomic.AddInt64(&testSeq, 1)))
	e.connect(t, sentinel)
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func envOf(t *testing.T, event string, payload interface{}) *ws.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &ws.Envelope{Event: event, Data: data}
}

func drain(t *testing.T, c *ws.Client) []ws.Envelope {
	t.Helper()
	var events []ws.Envelope
	for {
		select {
		case data := <-c.Send:
			var env ws.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			events = append(events, env)
		default:
			return events
		}
	}
}

func decodeData(t *testing.T, env ws.Envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode %s data: %v", env.Event, err)
	}
}

func findEvent(events []ws.Envelope, name string) *ws.Envelope {
	for i := range events {
		if events[i].Event == name {
			return &events[i]
		}
	}
	return nil
}

func (e *testEnv) join(t *testing.T, client *ws.Client, code, name string) {
	t.Helper()
	err := e.router.HandleEvent(client, envOf(t, ws.EventJoinBoard, map[string]string{
		"code":       code,
		"clientName": name,
	}))
	if err != nil {
		t.Fatalf("join %s: %v", code, err)
	}
}

func TestJoinBoardSendsSnapshotBeforeBroadcasts(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "alice")
	board, err := e.db.CreateBoard(&owner.ID, "retro")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	client := e.connect(t, owner)
	drain(t, client)

	e.join(t, client, board.Code, "alice")

	events := drain(t, client)
	if len(events) == 0 || events[0].Event != ws.EventBoardState {
		t.Fatalf("first event = %v, want board_state", events)
	}

	var state dto.BoardState
	decodeData(t, events[0], &state)
	if len(state.Cards) != 3 {
		t.Errorf("snapshot cards = %d, want template cards", len(state.Cards))
	}
	if state.Role != "owner" {
		t.Errorf("role = %q, want owner", state.Role)
	}
	if state.Title != "Sprint Retrospective" {
		t.Errorf("title = %q", state.Title)
	}
	if len(state.Channels) != 1 || state.Channels[0] != "general" {
		t.Errorf("channels = %v, want default general", state.Channels)
	}

	if findEvent(events, ws.EventPresence) == nil {
		t.Error("presence broadcast missing after join")
	}
}

func TestSecondJoinerSeesEarlierWork(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")

	mustHandle(t, e, a, ws.EventCreateCard, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "first idea",
	})
	mustHandle(t, e, a, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "hello room",
	})

	b := e.connect(t, bob)
	drain(t, b)
	e.join(t, b, board.Code, "bob")

	events := drain(t, b)
	var state dto.BoardState
	decodeData(t, events[0], &state)

	if len(state.Cards) != 1 || state.Cards[0].Text != "first idea" {
		t.Errorf("cards = %+v", state.Cards)
	}
	if len(state.Messages) != 1 || state.Messages[0].Text != "hello room" {
		t.Errorf("messages = %+v", state.Messages)
	}
	if state.Role != "member" {
		t.Errorf("joiner role = %q, want member", state.Role)
	}
}

func mustHandle(t *testing.T, e *testEnv, c *ws.Client, event string, payload interface{}) {
	t.Helper()
	if err := e.router.HandleEvent(c, envOf(t, event, payload)); err != nil {
		t.Fatalf("%s: %v", event, err)
	}
}

func TestCreateCardBroadcastsToWholeRoom(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")
	drain(t, a)
	drain(t, b)

	mustHandle(t, e, a, ws.EventCreateCard, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "new card", "tag": "🟢",
	})

	for _, c := range []*ws.Client{a, b} {
		events := drain(t, c)
		env := findEvent(events, ws.EventCardAdded)
		if env == nil {
			t.Fatalf("card_added missing for %s", c.Username)
		}
		var card dto.CardResponse
		decodeData(t, *env, &card)
		if card.Votes != 0 {
			t.Errorf("new card votes = %d", card.Votes)
		}
		if card.OrderIndex == nil || *card.OrderIndex != 0 {
			t.Errorf("order index = %v", card.OrderIndex)
		}
	}
}

func TestVoteCardBroadcastsRunningTotal(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")

	mustHandle(t, e, a, ws.EventCreateCard, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "vote on this",
	})
	cards, _ := e.db.ListCards(board.ID)
	drain(t, a)

	// Голос не идемпотентен: каждый повтор прибавляет.
	mustHandle(t, e, a, ws.EventVoteCard, map[string]interface{}{"code": board.Code, "cardId": cards[0].ID})
	mustHandle(t, e, a, ws.EventVoteCard, map[string]interface{}{"code": board.Code, "cardId": cards[0].ID})

	events := drain(t, a)
	var last dto.CardResponse
	count := 0
	for _, env := range events {
		if env.Event == ws.EventCardUpdated {
			count++
			decodeData(t, env, &last)
		}
	}
	if count != 2 {
		t.Fatalf("card_updated events = %d", count)
	}
	if last.Votes != 2 {
		t.Errorf("votes = %d, want 2", last.Votes)
	}
}

func TestChatEditRejectedForNonAuthor(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, a, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "mine",
	})
	messages, _ := e.db.ListRecentMessages(board.ID, 10)

	err := e.router.HandleEvent(b, envOf(t, ws.EventChatEdit, map[string]interface{}{
		"code": board.Code, "messageId": messages[0].ID, "text": "hijacked",
	}))
	if err != ws.ErrNoPermission {
		t.Errorf("edit by non-author: err = %v, want no-permission", err)
	}

	stored, _ := e.db.GetMessage(messages[0].ID)
	if stored.Text != "mine" {
		t.Errorf("message text changed to %q", stored.Text)
	}
}

func TestModeratorCanEditOthersMessages(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&bob.ID, "")
	if err := e.db.SetMemberRole(board.ID, alice.ID, "moderator"); err != nil {
		t.Fatalf("set role: %v", err)
	}

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, b, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "bob", "text": "typo hree",
	})
	messages, _ := e.db.ListRecentMessages(board.ID, 10)
	drain(t, a)
	drain(t, b)

	mustHandle(t, e, a, ws.EventChatEdit, map[string]interface{}{
		"code": board.Code, "messageId": messages[0].ID, "text": "typo here",
	})

	env := findEvent(drain(t, b), ws.EventChatUpdated)
	if env == nil {
		t.Fatal("chat_updated missing")
	}
	var updated dto.MessageResponse
	decodeData(t, *env, &updated)
	if updated.Text != "typo here" || updated.EditedAt == nil {
		t.Errorf("updated = %+v", updated)
	}
}

func TestChatPinRequiresModerator(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, b, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "bob", "text": "pin me",
	})
	messages, _ := e.db.ListRecentMessages(board.ID, 10)

	err := e.router.HandleEvent(b, envOf(t, ws.EventChatPin, map[string]interface{}{
		"code": board.Code, "messageId": messages[0].ID,
	}))
	if err != ws.ErrNoPermission {
		t.Errorf("pin by member: err = %v", err)
	}

	drain(t, a)
	mustHandle(t, e, a, ws.EventChatPin, map[string]interface{}{
		"code": board.Code, "messageId": messages[0].ID,
	})
	if findEvent(drain(t, a), ws.EventChatPinned) == nil {
		t.Error("chat_pinned missing after owner pin")
	}
}

func TestMutationsOnDeletedMessageRejected(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")

	mustHandle(t, e, a, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "doomed",
	})
	messages, _ := e.db.ListRecentMessages(board.ID, 10)
	id := messages[0].ID

	mustHandle(t, e, a, ws.EventChatDelete, map[string]interface{}{"code": board.Code, "messageId": id})

	err := e.router.HandleEvent(a, envOf(t, ws.EventChatEdit, map[string]interface{}{
		"code": board.Code, "messageId": id, "text": "resurrect",
	}))
	if err != ws.ErrMessageNotFound {
		t.Errorf("edit deleted: err = %v", err)
	}

	err = e.router.HandleEvent(a, envOf(t, ws.EventChatReact, map[string]interface{}{
		"code": board.Code, "messageId": id, "emoji": "🔥",
	}))
	if err != ws.ErrMessageNotFound {
		t.Errorf("react deleted: err = %v", err)
	}
}

func TestChatReactBroadcastsFullTally(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, a, ws.EventSendChat, map[string]interface{}{
		"code": board.Code, "author": "alice", "text": "react to me",
	})
	messages, _ := e.db.ListRecentMessages(board.ID, 10)
	drain(t, a)
	drain(t, b)

	mustHandle(t, e, b, ws.EventChatReact, map[string]interface{}{
		"code": board.Code, "messageId": messages[0].ID, "emoji": "🔥",
	})

	env := findEvent(drain(t, a), ws.EventChatReactions)
	if env == nil {
		t.Fatal("chat_reactions missing")
	}
	var payload struct {
		MessageID uint                     `json:"messageId"`
		Reactions []database.ReactionCount `json:"reactions"`
	}
	decodeData(t, *env, &payload)
	if len(payload.Reactions) != 1 || payload.Reactions[0].Count != 1 {
		t.Errorf("reactions = %+v", payload.Reactions)
	}
}

func TestTypingExcludesSender(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")
	drain(t, a)
	drain(t, b)

	mustHandle(t, e, a, ws.EventTyping, map[string]interface{}{
		"code": board.Code, "author": "alice",
	})

	if findEvent(drain(t, a), ws.EventTyping) != nil {
		t.Error("sender received its own typing echo")
	}
	env := findEvent(drain(t, b), ws.EventTyping)
	if env == nil {
		t.Fatal("typing missing for the other member")
	}
	var payload struct {
		Authors []string `json:"authors"`
	}
	decodeData(t, *env, &payload)
	if len(payload.Authors) != 1 || payload.Authors[0] != "alice" {
		t.Errorf("authors = %v", payload.Authors)
	}
}

func TestDisconnectCleansEphemeralState(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")
	key := ws.BoardRoom(board.Code)

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, a, ws.EventTyping, map[string]interface{}{"code": board.Code, "author": "alice"})
	mustHandle(t, e, a, ws.EventCursorMove, map[string]interface{}{
		"code": board.Code, "author": "alice", "pos": map[string]float64{"x": 1, "y": 2},
	})
	drain(t, b)

	e.hub.Unregister(a)
	registry := e.hub.Registry()
	waitFor(t, func() bool { return !registry.Contains(key, a.ID) })
	// presence + typing + cursors для комнаты и общий user_offline.
	waitFor(t, func() bool { return len(b.Send) >= 4 })

	if authors := registry.TypingAuthors(key); len(authors) != 0 {
		t.Errorf("typing authors after disconnect = %v", authors)
	}
	if cursors := registry.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors after disconnect = %v", cursors)
	}

	events := drain(t, b)
	env := findEvent(events, ws.EventPresence)
	if env == nil {
		t.Fatal("presence broadcast missing after disconnect")
	}
	var payload struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	}
	decodeData(t, *env, &payload)
	if payload.Count != 1 {
		t.Errorf("presence count = %d, want 1", payload.Count)
	}
}

func TestCursorMoveAfterLeaveLeavesNoTrace(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")
	key := ws.BoardRoom(board.Code)

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	e.join(t, a, board.Code, "alice")
	e.join(t, b, board.Code, "bob")

	mustHandle(t, e, a, ws.EventLeave, map[string]string{"code": board.Code})

	// Поздний cursor_move после выхода не должен оставлять запись:
	// соединение уже вне членства, а у курсоров нет TTL.
	mustHandle(t, e, a, ws.EventCursorMove, map[string]interface{}{
		"code": board.Code, "author": "alice", "pos": map[string]float64{"x": 1, "y": 2},
	})
	mustHandle(t, e, a, ws.EventTyping, map[string]interface{}{"code": board.Code, "author": "alice"})

	registry := e.hub.Registry()
	if cursors := registry.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors after leave = %+v", cursors)
	}
	if authors := registry.TypingAuthors(key); len(authors) != 0 {
		t.Errorf("typing authors after leave = %v", authors)
	}

	e.hub.Unregister(a)
	waitFor(t, func() bool { return !e.hub.IsUserOnline(alice.ID) })

	if cursors := registry.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors after disconnect = %+v", cursors)
	}
	if got := registry.Count(key); got != 1 {
		t.Errorf("room count = %d, want 1", got)
	}
}

func TestJoinSnapshotSeesWriteUnderRoomScope(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	board, _ := e.db.CreateBoard(&alice.ID, "")
	key := ws.BoardRoom(board.Code)

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")
	drain(t, a)

	// Писатель коммитит и рассылает под scope комнаты; вход новичка
	// обязан сериализоваться следом и увидеть сообщение в снапшоте.
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.hub.WithRoom(key, func() {
			close(started)
			message := models.Message{BoardID: board.ID, Author: "alice", Text: "landed mid-join"}
			if err := e.db.InsertMessage(&message); err != nil {
				t.Errorf("insert message: %v", err)
				return
			}
			e.hub.Publish(key, ws.EventChatAdded, formatMessage(message, nil), ws.NilConn)
			time.Sleep(50 * time.Millisecond)
		})
	}()

	<-started
	b := e.connect(t, bob)
	drain(t, b)
	e.join(t, b, board.Code, "bob")
	<-done

	events := drain(t, b)
	var state dto.BoardState
	decodeData(t, events[0], &state)
	if len(state.Messages) != 1 || state.Messages[0].Text != "landed mid-join" {
		t.Errorf("snapshot messages = %+v, concurrent write lost", state.Messages)
	}
}

func TestAnonymousCanJoinButNotReact(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "alice")
	board, _ := e.db.CreateBoard(&owner.ID, "")

	anon := e.connectAnon(t)
	drain(t, anon)
	e.join(t, anon, board.Code, "Guest")

	events := drain(t, anon)
	if len(events) == 0 || events[0].Event != ws.EventBoardState {
		t.Fatalf("first event = %v", events)
	}
	var state dto.BoardState
	decodeData(t, events[0], &state)
	if state.Role != "viewer" {
		t.Errorf("anon role = %q, want viewer", state.Role)
	}

	// Карточки анониму доступны, реакции нет.
	mustHandle(t, e, anon, ws.EventCreateCard, map[string]interface{}{
		"code": board.Code, "author": "Guest", "text": "anon idea",
	})

	err := e.router.HandleEvent(anon, envOf(t, ws.EventChatReact, map[string]interface{}{
		"messageId": 1, "emoji": "🔥",
	}))
	if err != ws.ErrAuthRequired {
		t.Errorf("anon react: err = %v", err)
	}
}

func TestDMJoinSynthesizesHistoryWithReadState(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	a := e.connect(t, alice)
	drain(t, a)

	mustHandle(t, e, a, ws.EventDMJoin, map[string]string{"other": "bob"})
	mustHandle(t, e, a, ws.EventDMSend, map[string]interface{}{"to": "bob", "text": "hi bob"})
	drain(t, a)

	b := e.connect(t, bob)
	drain(t, b)
	mustHandle(t, e, b, ws.EventDMJoin, map[string]string{"other": "alice"})

	events := drain(t, b)
	presence := findEvent(events, ws.EventDMPresence)
	if presence == nil {
		t.Fatal("dm_presence missing")
	}
	var ps struct {
		OtherOnline bool `json:"other_online"`
	}
	decodeData(t, *presence, &ps)
	if !ps.OtherOnline {
		t.Error("other_online = false while sender connected")
	}

	history := findEvent(events, ws.EventDMHistory)
	if history == nil {
		t.Fatal("dm_history missing")
	}
	var msgs []dto.DMResponse
	decodeData(t, *history, &msgs)
	if len(msgs) != 1 || msgs[0].Text != "hi bob" {
		t.Fatalf("history = %+v", msgs)
	}
	if msgs[0].ReadAt != nil {
		t.Error("unread message has read_at set")
	}

	// Квитанция получателя доходит отправителю.
	mustHandle(t, e, b, ws.EventDMRead, map[string]interface{}{"messageId": msgs[0].ID})
	if findEvent(drain(t, a), ws.EventDMRead) == nil {
		t.Error("dm_read missing on sender side")
	}
}

func TestDMSendNotifiesOfflineReceiver(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	a := e.connect(t, alice)
	mustHandle(t, e, a, ws.EventDMSend, map[string]interface{}{"to": "bob", "text": "are you there?"})

	rows, err := e.db.ListNotifications(bob.ID, 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("notifications = %d, want 1 for offline receiver", len(rows))
	}
}

func TestDMEditOnlyBySender(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	a := e.connect(t, alice)
	b := e.connect(t, bob)

	mustHandle(t, e, a, ws.EventDMSend, map[string]interface{}{"to": "bob", "text": "original"})
	messages, _ := e.db.ListDirectMessages(alice.ID, bob.ID, 10)

	err := e.router.HandleEvent(b, envOf(t, ws.EventDMEdit, map[string]interface{}{
		"messageId": messages[0].ID, "text": "forged",
	}))
	if err != ws.ErrNoPermission {
		t.Errorf("edit by receiver: err = %v", err)
	}

	mustHandle(t, e, a, ws.EventDMEdit, map[string]interface{}{
		"messageId": messages[0].ID, "text": "fixed",
	})
	stored, _ := e.db.GetDirectMessage(messages[0].ID)
	if stored.Text != "fixed" || stored.EditedAt == nil {
		t.Errorf("stored = %+v", stored)
	}
}

func TestGroupJoinDeliversHistory(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	a := e.connect(t, alice)
	mustHandle(t, e, a, ws.EventGroupJoin, map[string]string{"slug": "lobby"})
	mustHandle(t, e, a, ws.EventGroupSend, map[string]interface{}{"slug": "lobby", "text": "welcome all"})
	drain(t, a)

	b := e.connect(t, bob)
	drain(t, b)
	mustHandle(t, e, b, ws.EventGroupJoin, map[string]string{"slug": "lobby"})

	env := findEvent(drain(t, b), ws.EventGroupHistory)
	if env == nil {
		t.Fatal("group_history missing")
	}
	var payload struct {
		Room     string                     `json:"room"`
		Messages []dto.GroupMessageResponse `json:"messages"`
	}
	decodeData(t, *env, &payload)
	if payload.Room != "lobby" {
		t.Errorf("room = %q", payload.Room)
	}
	if len(payload.Messages) != 1 || payload.Messages[0].SenderName != "alice" {
		t.Errorf("messages = %+v", payload.Messages)
	}
}

func TestGroupSendBroadcastsToRoom(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	a := e.connect(t, alice)
	b := e.connect(t, bob)
	mustHandle(t, e, a, ws.EventGroupJoin, map[string]string{"slug": "lobby"})
	mustHandle(t, e, b, ws.EventGroupJoin, map[string]string{"slug": "lobby"})
	drain(t, a)
	drain(t, b)

	mustHandle(t, e, a, ws.EventGroupSend, map[string]interface{}{"slug": "lobby", "text": "ping"})

	env := findEvent(drain(t, b), ws.EventGroupNew)
	if env == nil {
		t.Fatal("group_new missing")
	}
	var msg dto.GroupMessageResponse
	decodeData(t, *env, &msg)
	if msg.Text != "ping" || msg.SenderName != "alice" {
		t.Errorf("message = %+v", msg)
	}
}

func TestUnknownGroupRejected(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	a := e.connect(t, alice)

	err := e.router.HandleEvent(a, envOf(t, ws.EventGroupJoin, map[string]string{"slug": "nope"}))
	if err != ws.ErrRoomNotFound {
		t.Errorf("unknown group: err = %v", err)
	}
}

func TestSetThemeValidatesAgainstAllowedSet(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")
	drain(t, a)

	err := e.router.HandleEvent(a, envOf(t, ws.EventSetTheme, map[string]string{
		"code": board.Code, "theme": "neon",
	}))
	if err != ws.ErrInvalidPayload {
		t.Errorf("bad theme: err = %v", err)
	}

	mustHandle(t, e, a, ws.EventSetTheme, map[string]string{"code": board.Code, "theme": "sunset"})
	if findEvent(drain(t, a), ws.EventThemeChanged) == nil {
		t.Error("theme_changed missing")
	}

	stored, _ := e.db.GetBoard(board.ID)
	if stored.Theme != "sunset" {
		t.Errorf("theme = %q", stored.Theme)
	}
}

func TestSetTitleFallsBackOnEmpty(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	board, _ := e.db.CreateBoard(&alice.ID, "")

	a := e.connect(t, alice)
	e.join(t, a, board.Code, "alice")

	mustHandle(t, e, a, ws.EventSetTitle, map[string]string{"code": board.Code, "title": "   "})

	stored, _ := e.db.GetBoard(board.ID)
	if stored.Title != "Team Board" {
		t.Errorf("title = %q, want fallback", stored.Title)
	}
}

func TestJoinUnknownBoardRejected(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice")
	a := e.connect(t, alice)

	err := e.router.HandleEvent(a, envOf(t, ws.EventJoinBoard, map[string]string{
		"code": "zzzzzz", "clientName": "alice",
	}))
	if err != ws.ErrRoomNotFound {
		t.Errorf("unknown board: err = %v", err)
	}
}
