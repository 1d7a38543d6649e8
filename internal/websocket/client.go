package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB
)

// EventHandler обрабатывает входящие события клиента.
type EventHandler interface {
	HandleEvent(client *Client, env *Envelope) error
}

// Client — одно WebSocket-соединение. UserID == uuid.Nil для анонима.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	rooms map[string]bool
	mu    sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
		rooms:    make(map[string]bool),
	}
}

// ReadPump читает события от клиента
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		err := c.Conn.ReadJSON(&env)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &env); err != nil {
				log.Printf("Error handling %s: %v", env.Event, err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет события клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent кладет событие в очередь соединения.
func (c *Client) SendEvent(event string, payload interface{}) error {
	data, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(EventError, map[string]string{"message": errorMsg})
}

func (c *Client) IsInRoom(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[key]
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for key := range c.rooms {
		rooms = append(rooms, key)
	}
	return rooms
}

// Authenticated: у соединения есть идентичность.
func (c *Client) Authenticated() bool {
	return c.UserID != uuid.Nil
}

func (c *Client) addRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[key] = true
}

func (c *Client) removeRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, key)
}

// takeRooms забирает и очищает список комнат при разрыве.
func (c *Client) takeRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for key := range c.rooms {
		rooms = append(rooms, key)
	}
	c.rooms = make(map[string]bool)
	return rooms
}

// DecodePayload разбирает data кадра в целевую структуру.
func DecodePayload(env *Envelope, v interface{}) error {
	if len(env.Data) == 0 {
		return ErrInvalidPayload
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return ErrInvalidPayload
	}
	return nil
}
