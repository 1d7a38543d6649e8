package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()

	if got := r.Join("board_abc123", connID, "alice"); got != 1 {
		t.Errorf("first join count = %d", got)
	}
	// Повторный вход того же соединения не дублирует членство.
	if got := r.Join("board_abc123", connID, "alice"); got != 1 {
		t.Errorf("second join count = %d", got)
	}

	if got := r.Join("board_abc123", uuid.New(), "bob"); got != 2 {
		t.Errorf("count after second member = %d", got)
	}
}

func TestRegistryJoinUpdatesName(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()

	r.Join("board_abc123", connID, "alice")
	r.Join("board_abc123", connID, "alicia")

	names := r.Names("board_abc123")
	if len(names) != 1 || names[0] != "alicia" {
		t.Errorf("names = %v, want renamed member", names)
	}
}

func TestRegistryLeavePurgesEphemeralState(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()
	other := uuid.New()
	key := "board_abc123"

	r.Join(key, connID, "alice")
	r.Join(key, other, "bob")
	r.SetTyping(key, connID, "alice")
	r.SetCursor(key, connID, Cursor{Author: "alice", X: 1, Y: 2})

	if got := r.Leave(key, connID); got != 1 {
		t.Errorf("remaining = %d", got)
	}

	if r.Contains(key, connID) {
		t.Error("member still present after leave")
	}
	if authors := r.TypingAuthors(key); len(authors) != 0 {
		t.Errorf("typing authors = %v after leave", authors)
	}
	if cursors := r.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors = %v after leave", cursors)
	}
}

func TestRegistryLastLeaveDropsRoom(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()
	key := "board_abc123"

	r.Join(key, connID, "alice")
	r.Leave(key, connID)

	r.mu.Lock()
	_, ok := r.rooms[key]
	r.mu.Unlock()
	if ok {
		t.Error("empty room not removed")
	}
}

func TestRegistryNamesSortedAndNonEmpty(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"

	r.Join(key, uuid.New(), "zoe")
	r.Join(key, uuid.New(), "adam")
	r.Join(key, uuid.New(), "")

	names := r.Names(key)
	if len(names) != 2 {
		t.Fatalf("names = %v, empty name must be skipped", names)
	}
	if names[0] != "adam" || names[1] != "zoe" {
		t.Errorf("names not sorted: %v", names)
	}
}

func TestTypingExpiry(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"
	connID := uuid.New()

	current := time.Now()
	r.now = func() time.Time { return current }

	r.Join(key, connID, "alice")
	r.SetTyping(key, connID, "alice")

	if authors := r.TypingAuthors(key); len(authors) != 1 {
		t.Fatalf("authors = %v", authors)
	}

	// После TTL запись выметается при следующем чтении.
	current = current.Add(typingTTL + time.Second)
	if authors := r.TypingAuthors(key); len(authors) != 0 {
		t.Errorf("authors = %v after expiry", authors)
	}
}

func TestTypingRefreshExtendsTTL(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"
	connID := uuid.New()

	current := time.Now()
	r.now = func() time.Time { return current }

	r.Join(key, connID, "alice")
	r.SetTyping(key, connID, "alice")
	current = current.Add(4 * time.Second)
	r.SetTyping(key, connID, "alice")
	current = current.Add(4 * time.Second)

	if authors := r.TypingAuthors(key); len(authors) != 1 {
		t.Errorf("authors = %v, refresh should keep entry alive", authors)
	}
}

func TestCursorLastWriteWins(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"
	connID := uuid.New()

	r.Join(key, connID, "alice")
	r.SetCursor(key, connID, Cursor{Author: "alice", X: 1, Y: 1})
	r.SetCursor(key, connID, Cursor{Author: "alice", X: 9, Y: 9})

	cursors := r.Cursors(key)
	if len(cursors) != 1 {
		t.Fatalf("cursors = %d", len(cursors))
	}
	if cursors[0].X != 9 || cursors[0].Y != 9 {
		t.Errorf("cursor = %+v, want latest position", cursors[0])
	}
}

func TestEphemeralWritesRequireMembership(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"
	member := uuid.New()
	stranger := uuid.New()

	r.Join(key, member, "alice")

	// Соединение вне комнаты не должно оставлять в ней следов.
	r.SetTyping(key, stranger, "mallory")
	r.SetCursor(key, stranger, Cursor{Author: "mallory", X: 5, Y: 5})

	if authors := r.TypingAuthors(key); len(authors) != 0 {
		t.Errorf("typing authors = %v, non-member write must be ignored", authors)
	}
	if cursors := r.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors = %v, non-member write must be ignored", cursors)
	}
	if r.Count(key) != 1 {
		t.Errorf("count = %d, stranger must not be added", r.Count(key))
	}
}

func TestCursorAfterLeaveIsIgnored(t *testing.T) {
	r := NewRegistry()
	key := "board_abc123"
	connID := uuid.New()
	other := uuid.New()

	r.Join(key, connID, "alice")
	r.Join(key, other, "bob")
	r.Leave(key, connID)

	// Поздний cursor_move после выхода не должен воскрешать запись:
	// у курсоров нет TTL, призрак жил бы до конца комнаты.
	r.SetCursor(key, connID, Cursor{Author: "alice", X: 1, Y: 2})

	if cursors := r.Cursors(key); len(cursors) != 0 {
		t.Errorf("cursors = %v after leave", cursors)
	}
}

func TestCursorInUnknownRoomIsIgnored(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()

	r.SetCursor("board_nowhere", connID, Cursor{Author: "alice", X: 1, Y: 1})
	r.SetTyping("board_nowhere", connID, "alice")

	r.mu.Lock()
	_, ok := r.rooms["board_nowhere"]
	r.mu.Unlock()
	if ok {
		t.Error("write to unknown room must not create it")
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()

	r.Join("board_one", connID, "alice")
	r.Join("dm_a_b", connID, "alice")

	r.Leave("board_one", connID)

	if !r.Contains("dm_a_b", connID) {
		t.Error("leave from one room must not touch another")
	}
}
