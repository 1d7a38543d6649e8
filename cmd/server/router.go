package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/l3nnardwlg/echoboard/internal/handlers"
	"github.com/l3nnardwlg/echoboard/internal/middleware"
	"github.com/l3nnardwlg/echoboard/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	authH *handlers.AuthHandler,
	boardH *handlers.BoardHandler,
	wsH *handlers.WebSocketHandler,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	// WebSocket: токен опционален, анонимы допускаются на доски.
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)

	// Погашение инвайта по ссылке.
	r.GET("/i/:token", middleware.AuthMiddleware(jwtMgr, rdb), boardH.RedeemInvite)

	// API endpoints
	api := r.Group("/api", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.POST("/boards", boardH.CreateBoard)
		api.GET("/boards", boardH.MyBoards)
		api.POST("/board/:code/cards/reorder", boardH.ReorderCards)
		api.POST("/board/:code/invites", boardH.CreateInvite)
		api.GET("/rooms", boardH.GroupRooms)
		api.GET("/notifications", boardH.Notifications)
		api.POST("/notifications/read", boardH.MarkNotificationsRead)
	}
}
