package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/l3nnardwlg/echoboard/internal/database"
	"github.com/l3nnardwlg/echoboard/internal/middleware"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

const inviteTTL = 7 * 24 * time.Hour

// BoardHandler — REST-поверхность досок: создание, список,
// перестановка карточек, инвайты, нотификации.
type BoardHandler struct {
	db  *database.Database
	hub *ws.Hub
}

func NewBoardHandler(db *database.Database, hub *ws.Hub) *BoardHandler {
	return &BoardHandler{db: db, hub: hub}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Template string `json:"template"`
	}
	// Тело опционально: без шаблона создается пустая доска.
	_ = c.ShouldBindJSON(&req)

	board, err := h.db.CreateBoard(&userID, req.Template)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":  board.Code,
		"title": board.Title,
		"theme": board.Theme,
	})
}

func (h *BoardHandler) MyBoards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	boards, err := h.db.GetUserBoards(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list boards"})
		return
	}

	out := make([]gin.H, len(boards))
	for i, b := range boards {
		out[i] = gin.H{
			"code":      b.Code,
			"title":     b.Title,
			"theme":     b.Theme,
			"createdAt": b.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

// ReorderCards принимает полный порядок id и рассылает его комнате.
// Конфликт двух перестановок решается как last-write-wins.
func (h *BoardHandler) ReorderCards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	board, err := h.db.GetBoardByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}

	role, err := h.db.GetMemberRole(board.ID, userID)
	if err != nil || !hasRole(role, "member") {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req struct {
		Order []uint `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.ReorderCards(board.ID, req.Order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder"})
		return
	}

	key := ws.BoardRoom(board.Code)
	h.hub.WithRoom(key, func() {
		h.hub.Publish(key, ws.EventCardsReordered, gin.H{"order": req.Order}, ws.NilConn)
	})

	c.Status(http.StatusOK)
}

// CreateInvite — токен на 7 дней, выписывать могут модераторы и выше.
func (h *BoardHandler) CreateInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	board, err := h.db.GetBoardByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}

	role, err := h.db.GetMemberRole(board.ID, userID)
	if err != nil || !hasRole(role, "moderator") {
		c.JSON(http.StatusForbidden, gin.H{"error": "moderator required"})
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invite"})
		return
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	invite, err := h.db.CreateInvite(board.ID, token, time.Now().Add(inviteTTL), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invite"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     invite.Token,
		"url":       "/i/" + invite.Token,
		"expiresAt": invite.ExpiresAt,
	})
}

// RedeemInvite погашает токен: членство member на доске и взаимный
// контакт с пригласившим.
func (h *BoardHandler) RedeemInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	invite, err := h.db.GetInviteByToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	if invite.ExpiresAt != nil && time.Now().After(*invite.ExpiresAt) {
		c.JSON(http.StatusGone, gin.H{"error": "invite expired"})
		return
	}

	if err := h.db.EnsureMember(invite.BoardID, userID, "member"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join board"})
		return
	}

	if invite.CreatedBy != nil && *invite.CreatedBy != userID {
		if err := h.db.AcceptContacts(*invite.CreatedBy, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link contacts"})
			return
		}
	}

	board, err := h.db.GetBoard(invite.BoardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "board not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": board.Code, "title": board.Title})
}

func (h *BoardHandler) Notifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rows, err := h.db.ListNotifications(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	out := make([]gin.H, len(rows))
	for i, n := range rows {
		out[i] = gin.H{
			"id":        n.ID,
			"content":   n.Content,
			"link":      n.Link,
			"readAt":    n.ReadAt,
			"createdAt": n.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *BoardHandler) MarkNotificationsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.db.MarkNotificationsRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.Status(http.StatusOK)
}

// GroupRooms — список групповых комнат для лобби.
func (h *BoardHandler) GroupRooms(c *gin.Context) {
	rooms, err := h.db.ListGroupRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	out := make([]gin.H, len(rooms))
	for i, r := range rooms {
		out[i] = gin.H{"slug": r.Slug, "title": r.Title}
	}
	c.JSON(http.StatusOK, out)
}
