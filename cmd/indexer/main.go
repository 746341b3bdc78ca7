package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"torch-indexer/internal/chain"
	"torch-indexer/internal/config"
	"torch-indexer/internal/handlers"
	"torch-indexer/internal/middleware"
	"torch-indexer/internal/projection"
	"torch-indexer/internal/services"
	"torch-indexer/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	entityStore, err := store.NewRedisStore(cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer entityStore.Close()

	reader, err := chain.NewContractReader(cfg.RPCURL, cfg.ContractAddress)
	if err != nil {
		logger.Fatal("failed to create contract reader", zap.Error(err))
	}
	defer reader.Close()

	feedHandler := handlers.NewFeedHandler(logger)
	projector := projection.NewProjector(entityStore, reader, feedHandler, logger)

	listener, err := chain.NewListener(cfg.WsRPCURL, cfg.ContractAddress, projector, logger)
	if err != nil {
		logger.Fatal("failed to create listener", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := listener.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal("listener stopped", zap.Error(err))
		}
	}()

	jwtService := services.NewJWTService(cfg)
	queryHandler := handlers.NewQueryHandler(entityStore)
	adminHandler := handlers.NewAdminHandler(entityStore, projector, jwtService, cfg.AdminKey)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/healthz", queryHandler.Health)
	router.POST("/auth/token", adminHandler.Authenticate)

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(entityStore))
	{
		api.GET("/users/:address", queryHandler.GetUser)
		api.GET("/users/:address/stats", queryHandler.GetUserStats)
		api.GET("/users/:address/bets", queryHandler.GetUserBets)

		api.GET("/bets", queryHandler.ListBets)
		api.GET("/bets/:id", queryHandler.GetBet)

		api.GET("/fees", queryHandler.ListFees)

		api.GET("/ws", feedHandler.HandleWebSocket)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService))
	{
		admin.GET("/status", adminHandler.Status)
	}

	logger.Info("indexer starting",
		zap.String("port", cfg.Port),
		zap.String("contract", cfg.ContractAddress))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
