package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nammaraitha-backend/internal/config"
	"nammaraitha-backend/internal/database"
	chatHandler "nammaraitha-backend/internal/handler/http/chat"
	notificationHandler "nammaraitha-backend/internal/handler/http/notification"
	speechHandler "nammaraitha-backend/internal/handler/http/speech"
	wsHandler "nammaraitha-backend/internal/handler/ws"
	"nammaraitha-backend/internal/middleware"
	"nammaraitha-backend/internal/realtime"
	"nammaraitha-backend/internal/repository/cassandra"
	"nammaraitha-backend/internal/repository/postgres"
	redisRepo "nammaraitha-backend/internal/repository/redis"
	chatService "nammaraitha-backend/internal/service/chat"
	conversationService "nammaraitha-backend/internal/service/conversation"
	notificationService "nammaraitha-backend/internal/service/notification"
	speechService "nammaraitha-backend/internal/service/speech"
	translateService "nammaraitha-backend/internal/service/translate"
	"nammaraitha-backend/pkg/env"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
	"nammaraitha-backend/pkg/push"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration and logging
	cfg := config.LoadConfig()
	logger.InitDefault()
	defer logger.Sync()

	// 2. Setup JWT Manager
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret, 15*time.Minute, 30*24*time.Hour)

	// 3. Connect to PostgreSQL
	db, err := database.NewDB(ctx, cfg.GetDBConnectionString(), database.DefaultDBConfig())
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	log.Println("✅ Connected to PostgreSQL")

	// 4. Connect to Cassandra
	cassandraDB, err := database.NewCassandraDBWithConfig(&database.CassandraConfig{
		Hosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
		Keyspace: env.GetString("CASSANDRA_KEYSPACE", "nammaraitha_ks"),
		Username: env.GetStringFromFile("CASSANDRA_USER", ""),
		Password: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),
		Timeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Cassandra: %v", err)
	}
	defer cassandraDB.Close()

	log.Println("✅ Connected to Cassandra")

	// 5. Connect to Redis
	database.InitRedisMetrics()
	redisDB, err := database.NewRedisDB(&database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     6379,
		Password: env.GetStringFromFile("REDIS_PASSWORD", ""),
		DB:       0,
		PoolSize: 10,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisDB.Close()

	go redisDB.StartHealthCheck(context.Background(), 10*time.Second)
	log.Println("✅ Connected to Redis")

	// 6. Initialize Repositories
	conversationRepo := postgres.NewConversationRepository(db.GetPool())
	notificationRepo := postgres.NewNotificationRepository(db.GetPool())
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)
	pushTokenRepo := redisRepo.NewPushTokenRepository(redisDB.Client)

	// 7. Initialize Services
	feed := realtime.NewRedisFeed(redisDB.Client)

	pushProvider, err := push.NewProvider()
	if err != nil {
		log.Fatalf("Failed to initialize push provider: %v", err)
	}

	translateSvc := translateService.NewService(translateService.NewDefaultChain(nil)...)
	conversationSvc := conversationService.NewService(conversationRepo)
	notificationSvc := notificationService.NewService(notificationRepo, conversationRepo, messageRepo, pushTokenRepo, pushProvider, feed)
	chatSvc := chatService.NewService(messageRepo, conversationRepo, translateSvc, feed, notificationSvc)

	recognizer := speechService.NewRecognizer(nil, cfg.SpeechSTTURL)
	synthesizer := speechService.NewSynthesizer(nil, cfg.SpeechTTSURL)

	// 8. Initialize Metrics
	appMetrics := metrics.NewMetrics("chat-service")
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// 9. Initialize Handlers
	chatHdlr := chatHandler.NewHandler(chatSvc, conversationSvc)
	notificationHdlr := notificationHandler.NewHandler(notificationSvc)
	speechHdlr := speechHandler.NewHandler(recognizer, synthesizer)

	// 10. Initialize WebSocket Hub and session handler
	chatHub := wsHandler.NewChatHub(feed, conversationRepo)
	sessionHdlr := wsHandler.NewSessionHandler(chatSvc, conversationSvc, translateSvc, feed)

	// 11. Setup Gin Router
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())
	router.Use(middleware.NewTimeoutMiddleware(nil).Middleware())

	// Health check
	router.GET("/health", middleware.HealthCheck("chat-service"))

	// Metrics endpoint (for Prometheus scraping)
	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	rateLimiter := middleware.NewAdvancedRateLimiter(redisDB.Client)

	// All chat routes require authentication
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager))
	v1.Use(rateLimiter.Middleware())
	{
		conversations := v1.Group("/conversations")
		{
			conversations.POST("/resolve", chatHdlr.ResolveConversation)
			conversations.GET("", chatHdlr.ListConversations)
			conversations.GET("/:id/messages", chatHdlr.GetMessages)
			conversations.POST("/:id/messages", chatHdlr.SendMessage)
			conversations.POST("/:id/read", chatHdlr.MarkRead)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHdlr.GetNotifications)
			notifications.GET("/unread-counts", notificationHdlr.GetUnreadCounts)
			notifications.POST("/:id/read", notificationHdlr.MarkAsRead)
			notifications.POST("/read-all", notificationHdlr.MarkAllAsRead)
		}

		v1.POST("/push/tokens", notificationHdlr.RegisterPushToken)

		speech := v1.Group("/speech")
		{
			speech.GET("/availability", speechHdlr.Availability)
			speech.POST("/transcribe", speechHdlr.Transcribe)
			speech.POST("/speak", speechHdlr.Speak)
			speech.POST("/speak/stop", speechHdlr.StopSpeaking)
			speech.PUT("/mute", speechHdlr.SetMuted)
		}

		// WebSocket endpoints (real-time chat)
		v1.GET("/ws/chat", chatHub.ServeWS)
		v1.GET("/ws/sessions", sessionHdlr.ServeSession)
	}

	// 12. Start server in goroutine
	port := getPort("8082")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Chat Service starting on port %s\n", port)
		log.Println("📡 WebSocket endpoints: /v1/ws/chat, /v1/ws/sessions")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 13. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getPort(fallback string) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return fallback
}
