package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/l3nnardwlg/echoboard/internal/database"
	"github.com/l3nnardwlg/echoboard/internal/middleware"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	db       *database.Database
	hub      *ws.Hub
	router   *EventRouter
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(db *database.Database, hub *ws.Hub, router *EventRouter) *WebSocketHandler {
	return &WebSocketHandler{
		db:     db,
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket апгрейдит соединение. Анонимов пускаем: без токена
// соединение получает uuid.Nil и имя выбирает само при join_board.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID := value.(uuid.UUID)

	username := ""
	if userID != uuid.Nil {
		user, err := h.db.GetUser(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		username = user.Username
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID, username)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.router)
}
