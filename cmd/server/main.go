package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planit-app/ranking-backend/internal/config"
	"github.com/planit-app/ranking-backend/internal/database"
	"github.com/planit-app/ranking-backend/internal/handler"
	"github.com/planit-app/ranking-backend/internal/leaderboard"
	"github.com/planit-app/ranking-backend/internal/middleware"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/planit-app/ranking-backend/internal/repository"
	"github.com/planit-app/ranking-backend/internal/service"
	"github.com/planit-app/ranking-backend/internal/websocket"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Connect to PostgreSQL
	db, err := database.ConnectPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.CloseDB()

	if !config.IsProduction() {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Connect to Redis
	redisClient, err := database.ConnectRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer database.CloseRedis()

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// Initialize Redis Pub/Sub bridge (handles multi-server broadcasting)
	pubSubService := service.NewPubSubService(redisClient)
	defer pubSubService.Stop()

	// Initialize ledger sync worker (Redis Streams, async PostgreSQL writes)
	ledgerSync := service.NewLedgerSyncService(redisClient, scoreRepo)
	ledgerSync.Start()
	defer ledgerSync.Stop()

	// Initialize the ranking core and reload current boards from the ledger
	registry := leaderboard.NewRegistry()
	rankingSvc := service.NewRankingService(registry, scoreRepo, pubSubService, ledgerSync)
	if err := rankingSvc.RehydrateCurrent(); err != nil {
		log.Fatalf("Failed to rehydrate leaderboards: %v", err)
	}

	// Initialize WebSocket hub; new subscribers get INITIAL_RANKING
	// snapshots straight from the live boards
	hub := websocket.NewHub(rankingSvc.InitialSnapshot)
	go hub.Run()

	// Every published ranking event (from ANY server) reaches this
	// server's subscribers through the local hub
	pubSubService.Start(func(event *models.RankingUpdateEvent) {
		hub.Broadcast(event)
	})

	// Initialize handlers
	rankingHandler := handler.NewRankingHandler(rankingSvc)
	wsHandler := handler.NewWebSocketHandler(hub)

	// Setup router
	router := setupRouter(rankingHandler, wsHandler)

	// Start award simulator (dev mode only)
	if cfg.App.SimulatorEnabled {
		simulatorSvc := service.NewSimulatorService(rankingSvc, memberRepo)
		simulatorSvc.Start()
		defer simulatorSvc.Stop()
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
		log.Printf("📊 Rankings API: http://localhost:%s/api/rankings/WEEKLY", cfg.Server.Port)
		log.Printf("🌐 WebSocket: ws://localhost:%s/ws?periods=WEEKLY,MONTHLY,ALLTIME", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}

func setupRouter(
	rankingHandler *handler.RankingHandler,
	wsHandler *handler.WebSocketHandler,
) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// API routes
	api := router.Group("/api")
	{
		// Award ingestion (certification/like subsystems call this)
		api.POST("/awards", rankingHandler.SubmitAward)

		// Ranking routes
		api.GET("/rankings/:period", rankingHandler.GetRankings)
		api.GET("/rankings/:period/users/:user_id", rankingHandler.GetUserRank)

		// WebSocket status
		api.GET("/ws/status", wsHandler.GetConnectionStatus)
	}

	// WebSocket endpoint
	router.GET("/ws", wsHandler.HandleWebSocket)

	return router
}
