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
	cartHandler "nammaraitha-backend/internal/handler/http/cart"
	produceHandler "nammaraitha-backend/internal/handler/http/produce"
	weatherHandler "nammaraitha-backend/internal/handler/http/weather"
	"nammaraitha-backend/internal/middleware"
	"nammaraitha-backend/internal/repository/postgres"
	cartService "nammaraitha-backend/internal/service/cart"
	produceService "nammaraitha-backend/internal/service/produce"
	storageService "nammaraitha-backend/internal/service/storage"
	suggestionService "nammaraitha-backend/internal/service/suggestion"
	weatherService "nammaraitha-backend/internal/service/weather"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
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

	// 4. Connect to Redis (rate limiting)
	database.InitRedisMetrics()
	redisDB, err := database.NewRedisDB(&database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     6379,
		DB:       0,
		PoolSize: 10,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisDB.Close()

	log.Println("✅ Connected to Redis")

	// 5. Connect to MinIO
	minioClient, err := storageService.NewMinioClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, false)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	storageSvc, err := storageService.NewService(minioClient, cfg.MinIOBucket, cfg.MinIOPublicURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	log.Println("✅ Connected to MinIO")

	// 6. Initialize Repositories
	produceRepo := postgres.NewProduceRepository(db.GetPool())
	cartRepo := postgres.NewCartRepository(db.GetPool())

	// 7. Initialize Services
	produceSvc := produceService.NewService(produceRepo, storageSvc)
	cartSvc := cartService.NewService(cartRepo, produceRepo)
	weatherSvc := weatherService.NewService(&weatherService.Config{
		APIKey: cfg.OpenWeatherAPIKey,
	})
	suggestionSvc := suggestionService.NewService()

	// 8. Initialize Metrics
	appMetrics := metrics.NewMetrics("market-service")
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// 9. Initialize Handlers
	produceHdlr := produceHandler.NewHandler(produceSvc, storageSvc)
	cartHdlr := cartHandler.NewHandler(cartSvc)
	weatherHdlr := weatherHandler.NewHandler(weatherSvc, suggestionSvc)

	// 10. Setup Gin Router
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())
	router.Use(middleware.NewTimeoutMiddleware(nil).Middleware())
	router.Use(middleware.NewDBPoolLimiter(db).Middleware())

	// Health check
	router.GET("/health", middleware.HealthCheck("market-service"))

	// Metrics endpoint (for Prometheus scraping)
	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	rateLimiter := middleware.NewAdvancedRateLimiter(redisDB.Client)

	// All market routes require authentication
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager))
	v1.Use(rateLimiter.Middleware())
	{
		produce := v1.Group("/produce")
		{
			produce.GET("", produceHdlr.ListAvailable)
			produce.GET("/:id", produceHdlr.Get)

			farmers := produce.Group("")
			farmers.Use(middleware.RequireRole("farmer"))
			{
				farmers.POST("", produceHdlr.Create)
				farmers.GET("/mine", produceHdlr.ListMine)
				farmers.POST("/images", produceHdlr.UploadImage)
				farmers.PATCH("/:id", produceHdlr.Update)
				farmers.DELETE("/:id", produceHdlr.Delete)
			}
		}

		cart := v1.Group("/cart")
		cart.Use(middleware.RequireRole("retailer"))
		{
			cart.GET("", cartHdlr.Get)
			cart.POST("", cartHdlr.Add)
			cart.PUT("/:id", cartHdlr.UpdateQuantity)
			cart.DELETE("/:id", cartHdlr.Remove)
		}

		weather := v1.Group("/weather")
		{
			weather.GET("", weatherHdlr.GetCurrent)
			weather.GET("/suggestions", weatherHdlr.GetSuggestions)
		}
	}

	// 11. Start server in goroutine
	port := getPort("8081")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Market Service starting on port %s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 12. Graceful shutdown
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
