package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"snowball/config"
	"snowball/internal/handlers"
	"snowball/internal/models"
	"snowball/internal/repository"
	"snowball/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found, using environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal().Msg("JWT_SECRET environment variable is not set")
	}

	config.ConnectDB()
	defer config.DisconnectDB()

	// Repositories
	accountRepo := repository.NewMongoAccountRepository()
	assetRepo := repository.NewMongoAssetRepository()
	userRepo := repository.NewMongoUserRepository()

	// Services
	marketData := services.NewAlphaVantageProvider(os.Getenv("ALPHA_VANTAGE_API_KEY"), logger)
	portfolioService := services.NewPortfolioService()
	tradeService := services.NewTradeService(assetRepo, accountRepo, portfolioService, logger)
	assetService := services.NewAssetService(assetRepo, accountRepo, marketData, logger)
	authService := services.NewAuthService(userRepo, jwtSecret, logger)
	syncService := services.NewSyncService(accountRepo, assetRepo, logger)
	hub := services.NewPortfolioHub(logger)

	go hub.Run()

	bootstrapDefaultAccount(accountRepo, logger)

	// Scheduled bulk price refresh
	scheduler := cron.New()
	refreshSpec := os.Getenv("PRICE_REFRESH_CRON")
	if refreshSpec == "" {
		refreshSpec = "0 18 * * 1-5" // weekday evenings
	}
	if _, err := scheduler.AddFunc(refreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		count, err := assetService.UpdateAllPrices(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("scheduled price refresh failed")
			return
		}
		hub.BroadcastPriceRefresh(count)
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", refreshSpec).Msg("invalid price refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountRepo, portfolioService, syncService)
	assetHandler := handlers.NewAssetHandler(assetRepo, accountRepo, tradeService, assetService, hub)

	authMiddleware := authHandler.AuthMiddleware()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "OK",
			"message": "Snowball portfolio API is running",
		})
	})

	// WebSocket endpoint for portfolio snapshot pushes
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to upgrade to WebSocket"})
			return
		}

		client := hub.RegisterClient(conn)
		go client.WritePump()
		go client.ReadPump()
	})

	api := router.Group("/api/v1")

	// Auth routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/auth/me", authMiddleware, authHandler.GetCurrentUser)

	// Account routes
	api.GET("/accounts", authMiddleware, accountHandler.ListAccounts)
	api.POST("/accounts", authMiddleware, accountHandler.CreateAccount)
	api.PATCH("/accounts/:id", authMiddleware, accountHandler.UpdateAccount)
	api.DELETE("/accounts/:id", authMiddleware, accountHandler.DeleteAccount)
	api.POST("/users/sync", authMiddleware, accountHandler.SyncPortfolio)

	// Asset routes
	api.POST("/assets", authMiddleware, assetHandler.CreateAsset)
	api.PATCH("/assets/:id", authMiddleware, assetHandler.UpdateAsset)
	api.DELETE("/assets/:id", authMiddleware, assetHandler.DeleteAsset)
	api.POST("/assets/execute", authMiddleware, assetHandler.ExecuteTrade)
	api.POST("/assets/update-all-prices", assetHandler.UpdateAllPrices)
	api.GET("/finance/lookup", assetHandler.LookupAsset)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Snowball portfolio backend running")
	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// bootstrapDefaultAccount creates a starter account on an empty database so
// the UI has something to render on first run.
func bootstrapDefaultAccount(accountRepo services.AccountRepository, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accounts, err := accountRepo.ListAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("checking for existing accounts failed")
		return
	}
	if len(accounts) > 0 {
		return
	}

	if _, err := accountRepo.Save(ctx, &models.Account{Name: "Default portfolio", Cash: 0}); err != nil {
		logger.Error().Err(err).Msg("creating default account failed")
		return
	}
	logger.Info().Msg("created default account")
}
