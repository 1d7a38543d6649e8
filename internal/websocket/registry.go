package websocket

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// typingTTL — сколько живет индикатор печати без обновления.
const typingTTL = 6 * time.Second

// Cursor — последняя известная позиция курсора соединения.
// Last-write-wins, истории нет.
type Cursor struct {
	Author string  `json:"author"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color,omitempty"`
}

type typingEntry struct {
	name string
	at   time.Time
}

// roomState — эфемерное состояние одной комнаты. Все три карты
// ключуются id соединения, поэтому выход соединения чистит их разом.
type roomState struct {
	mu      sync.Mutex
	members map[uuid.UUID]string
	typing  map[uuid.UUID]typingEntry
	cursors map[uuid.UUID]Cursor
}

func newRoomState() *roomState {
	return &roomState{
		members: make(map[uuid.UUID]string),
		typing:  make(map[uuid.UUID]typingEntry),
		cursors: make(map[uuid.UUID]Cursor),
	}
}

// Registry держит эфемерное состояние всех комнат процесса.
// Живет с запуска до Shutdown, на рестарте состояние теряется.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*roomState
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*roomState),
		now:   time.Now,
	}
}

func (r *Registry) room(key string, create bool) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[key]
	if !ok && create {
		room = newRoomState()
		r.rooms[key] = room
	}
	return room
}

// Join идемпотентен: повторный вход обновляет имя, но не дублирует
// членство. Возвращает размер комнаты после входа.
func (r *Registry) Join(key string, connID uuid.UUID, name string) int {
	room := r.room(key, true)

	room.mu.Lock()
	defer room.mu.Unlock()

	room.members[connID] = name
	return len(room.members)
}

// Leave убирает соединение из членства и из всех эфемерных карт
// комнаты одним шагом. Возвращает оставшийся размер комнаты.
func (r *Registry) Leave(key string, connID uuid.UUID) int {
	room := r.room(key, false)
	if room == nil {
		return 0
	}

	room.mu.Lock()
	delete(room.members, connID)
	delete(room.typing, connID)
	delete(room.cursors, connID)
	remaining := len(room.members)
	room.mu.Unlock()

	if remaining == 0 {
		r.mu.Lock()
		if room2, ok := r.rooms[key]; ok && room2 == room {
			delete(r.rooms, key)
		}
		r.mu.Unlock()
	}

	return remaining
}

// Contains сообщает, состоит ли соединение в комнате.
func (r *Registry) Contains(key string, connID uuid.UUID) bool {
	room := r.room(key, false)
	if room == nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	_, ok := room.members[connID]
	return ok
}

// Members — срез id соединений комнаты на момент вызова.
func (r *Registry) Members(key string) []uuid.UUID {
	room := r.room(key, false)
	if room == nil {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	return ids
}

// Names — отсортированные непустые имена участников (для presence).
func (r *Registry) Names(key string) []string {
	room := r.room(key, false)
	names := make([]string, 0)
	if room == nil {
		return names
	}

	room.mu.Lock()
	for _, name := range room.members {
		if name != "" {
			names = append(names, name)
		}
	}
	room.mu.Unlock()

	sort.Strings(names)
	return names
}

func (r *Registry) Count(key string) int {
	room := r.room(key, false)
	if room == nil {
		return 0
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.members)
}

// SetTyping — last-write-wins по соединению. Запись от соединения
// вне членства игнорируется, иначе после leave остался бы призрак.
func (r *Registry) SetTyping(key string, connID uuid.UUID, name string) {
	room := r.room(key, false)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.members[connID]; !ok {
		return
	}
	room.typing[connID] = typingEntry{name: name, at: r.now()}
}

func (r *Registry) ClearTyping(key string, connID uuid.UUID) {
	room := r.room(key, false)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	delete(room.typing, connID)
}

// TypingAuthors отдает актуальный список печатающих; просроченные
// записи выметаются на месте.
func (r *Registry) TypingAuthors(key string) []string {
	room := r.room(key, false)
	authors := make([]string, 0)
	if room == nil {
		return authors
	}

	cutoff := r.now().Add(-typingTTL)

	room.mu.Lock()
	for connID, entry := range room.typing {
		if entry.at.Before(cutoff) {
			delete(room.typing, connID)
			continue
		}
		if entry.name != "" {
			authors = append(authors, entry.name)
		}
	}
	room.mu.Unlock()

	sort.Strings(authors)
	return authors
}

// SetCursor принимает координаты только от членов комнаты: у курсоров
// нет TTL, и чужая запись жила бы в комнате вечно.
func (r *Registry) SetCursor(key string, connID uuid.UUID, cursor Cursor) {
	room := r.room(key, false)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.members[connID]; !ok {
		return
	}
	room.cursors[connID] = cursor
}

func (r *Registry) Cursors(key string) []Cursor {
	room := r.room(key, false)
	cursors := make([]Cursor, 0)
	if room == nil {
		return cursors
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	for _, cursor := range room.cursors {
		cursors = append(cursors, cursor)
	}
	return cursors
}

// Shutdown сбрасывает все комнаты (документированный teardown).
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = make(map[string]*roomState)
}
