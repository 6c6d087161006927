package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"sentinel/internal/auth"
	"sentinel/internal/config"
	"sentinel/internal/database"
	"sentinel/internal/engine"
	"sentinel/internal/engine/actors"
	"sentinel/internal/handlers"
	"sentinel/internal/middleware"
	"sentinel/internal/session"
	"sentinel/internal/utils"
	"sentinel/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.Configure(cfg.JWTSecret)
	metrics := utils.NewMetricsCollector()

	// Document store
	mongodb, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongodb.Close(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v", err)
		}
	}()

	// Session store
	sessions, err := session.NewRedisStore(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer sessions.Close()

	// WebSocket hub for feed events
	hub := websocket.NewHub()
	go hub.Run()

	// Actor system and engine
	system := actor.NewActorSystem()
	sentinelEngine := engine.NewEngine(system, mongodb, hub, metrics)

	// External identity service client
	authClient := auth.NewClient(cfg.AuthAPIURL, cfg.Server.RequestTimeout)

	server := handlers.NewServer(system, sentinelEngine, metrics, authClient, sessions, hub, cfg.Server.RequestTimeout)

	// Warm the feed so the first GET serves data.
	if _, err := system.Root.RequestFuture(sentinelEngine.GetFeedActor(), &actors.LoadFeedMsg{}, cfg.Server.RequestTimeout).Result(); err != nil {
		log.Printf("Initial feed load failed to start: %v", err)
	}

	// Set up HTTP handlers
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HandleHealth())
	mux.HandleFunc("/feed", server.HandleFeed())
	mux.HandleFunc("/post", server.HandlePost())
	mux.HandleFunc("/post/like", server.HandlePostLike())
	mux.HandleFunc("/post/approve", server.HandlePostApproval())
	mux.HandleFunc("/comment", server.HandleComment())
	mux.HandleFunc("/auth/login", server.HandleLogin())
	mux.HandleFunc("/auth/register", server.HandleRegister())
	mux.HandleFunc("/auth/confirm", server.HandleConfirmRegister())
	mux.HandleFunc("/auth/check-email", server.HandleCheckEmail())
	mux.HandleFunc("/auth/logout", server.HandleLogout())
	mux.HandleFunc("/auth/session", server.HandleSession())
	mux.HandleFunc("/ws", server.HandleWebSocket())

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	handler := middleware.CORSMiddleware(corsConfig)(middleware.AuthMiddleware(mux))

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting Sentinel server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
