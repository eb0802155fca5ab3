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
	authHandler "nammaraitha-backend/internal/handler/http/auth"
	"nammaraitha-backend/internal/middleware"
	"nammaraitha-backend/internal/repository/postgres"
	authService "nammaraitha-backend/internal/service/auth"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration and logging
	cfg := config.LoadConfig()
	logger.InitDefault()
	defer logger.Sync()

	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET environment variable is required in production")
		}
		if len(cfg.JWTSecret) < 32 {
			log.Fatal("JWT_SECRET must be at least 32 characters")
		}
	}

	// 2. Setup JWT Manager
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret, 15*time.Minute, 30*24*time.Hour)

	// 3. Connect to PostgreSQL
	db, err := database.NewDB(ctx, cfg.GetDBConnectionString(), database.DefaultDBConfig())
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	log.Println("✅ Connected to PostgreSQL")

	// 4. Initialize Repositories
	userRepo := postgres.NewUserRepository(db.GetPool())

	// 5. Initialize Services
	authSvc := authService.NewService(userRepo, jwtManager, 15*time.Minute)

	// 6. Initialize Handlers
	authHdlr := authHandler.NewHandler(authSvc)

	// 7. Setup Gin Router
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware())

	// Health check
	router.GET("/health", middleware.HealthCheck("auth-service"))

	// API version 1 routes
	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHdlr.Register)
			auth.POST("/login", authHdlr.Login)

			authenticated := auth.Group("")
			authenticated.Use(middleware.AuthMiddleware(jwtManager))
			{
				authenticated.GET("/me", authHdlr.GetProfile)
			}
		}
	}

	// 8. Start server in goroutine
	port := getPort("8080")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Auth Service starting on port %s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 9. Graceful shutdown
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
