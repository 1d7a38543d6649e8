package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/l3nnardwlg/echoboard/internal/database"
	"github.com/l3nnardwlg/echoboard/internal/handlers"
	"github.com/l3nnardwlg/echoboard/internal/presence"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
	"github.com/l3nnardwlg/echoboard/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub

	AuthH  *handlers.AuthHandler
	BoardH *handlers.BoardHandler
	WSH    *handlers.WebSocketHandler
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)
	hub.SetPresenceTracker(presence.NewTracker(rdb))
	go hub.Run()

	router := handlers.NewEventRouter(dbConn, hub)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	boardH := handlers.NewBoardHandler(dbConn, hub)
	wsH := handlers.NewWebSocketHandler(dbConn, hub, router)

	engine := gin.Default()
	APIEndpoints(engine, authH, boardH, wsH, jwtMgr, rdb)

	return &Server{
		Router:     engine,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		AuthH:      authH,
		BoardH:     boardH,
		WSH:        wsH,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
