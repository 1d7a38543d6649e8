package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// DisconnectFunc вызывается после снятия клиента с учета, чтобы
// прикладной слой дочистил комнаты и разослал прощальные события.
type DisconnectFunc func(client *Client, rooms []string)

// PresenceTracker — внешнее зеркало онлайн-статуса (Redis).
type PresenceTracker interface {
	SetOnline(userID uuid.UUID)
	SetOffline(userID uuid.UUID)
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	registry *Registry

	// Зоны взаимного исключения по комнатам: мутация эфемерного
	// состояния и рассылка для одной комнаты не перемежаются.
	roomLocks map[string]*sync.Mutex
	lockMu    sync.Mutex

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	onDisconnect DisconnectFunc
	presence     PresenceTracker

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub поверх реестра комнат.
func NewHub(registry *Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		registry:    registry,
		roomLocks:   make(map[string]*sync.Mutex),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// SetDisconnectHandler подключает дочистку комнат на разрыве.
func (h *Hub) SetDisconnectHandler(fn DisconnectFunc) {
	h.onDisconnect = fn
}

// SetPresenceTracker подключает зеркало онлайн-статуса.
func (h *Hub) SetPresenceTracker(tracker PresenceTracker) {
	h.presence = tracker
}

// Run запускает hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub и сбрасывает реестр.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)

	h.registry.Shutdown()
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// WithRoom выполняет fn под эксклюзивной блокировкой комнаты.
// Внутри допустимы эфемерное состояние, рассылка и ограниченные
// чтения снапшота при входе; долгие storage-вызовы держать снаружи.
func (h *Hub) WithRoom(key string, fn func()) {
	h.lockMu.Lock()
	lock, ok := h.roomLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		h.roomLocks[key] = lock
	}
	h.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	fn()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client

	first := false
	if client.UserID != uuid.Nil {
		if _, ok := h.userClients[client.UserID]; !ok {
			h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
			first = true
		}
		h.userClients[client.UserID][client.ID] = client
	}
	h.mu.Unlock()

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)

	if first {
		if h.presence != nil {
			h.presence.SetOnline(client.UserID)
		}
		h.broadcastAll(EventUserOnline, map[string]interface{}{"user_id": client.UserID}, client.ID)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		// Неизвестное соединение — no-op, не ошибка.
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.ID)

	last := false
	if client.UserID != uuid.Nil {
		if userClients, ok := h.userClients[client.UserID]; ok {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.userClients, client.UserID)
				last = true
			}
		}
	}

	close(client.Send)
	h.mu.Unlock()

	rooms := client.takeRooms()

	if h.onDisconnect != nil {
		h.onDisconnect(client, rooms)
	} else {
		for _, key := range rooms {
			h.registry.Leave(key, client.ID)
		}
	}

	if last {
		if h.presence != nil {
			h.presence.SetOffline(client.UserID)
		}
		h.broadcastAll(EventUserOffline, map[string]interface{}{"user_id": client.UserID}, client.ID)
	}

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// JoinRoom добавляет клиента в комнату, возвращает её размер.
func (h *Hub) JoinRoom(client *Client, key, displayName string) int {
	count := h.registry.Join(key, client.ID, displayName)
	client.addRoom(key)
	return count
}

// LeaveRoom убирает клиента из комнаты, возвращает остаток.
func (h *Hub) LeaveRoom(client *Client, key string) int {
	count := h.registry.Leave(key, client.ID)
	client.removeRoom(key)
	return count
}

// Publish доставляет событие текущему составу комнаты. Доставка
// best-effort: переполненная очередь клиента — дроп, не блокировка.
func (h *Hub) Publish(key, event string, payload interface{}, exclude uuid.UUID) {
	data, err := NewEnvelope(event, payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	members := h.registry.Members(key)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, connID := range members {
		if connID == exclude {
			continue
		}
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("Client %s send channel full", client.ID)
		}
	}
}

// SendToUser отправляет событие всем соединениям пользователя.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := NewEnvelope(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// IsUserOnline: пользователь онлайн, пока у него есть соединения.
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userClients[userID]
	return ok && len(clients) > 0
}

// GetOnlineUsers возвращает список онлайн пользователей
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

func (h *Hub) broadcastAll(event string, payload interface{}, exclude uuid.UUID) {
	data, err := NewEnvelope(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.ID == exclude {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}
