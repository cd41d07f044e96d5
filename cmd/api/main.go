package main

import (
	"os"

	"jigtrack/internal/approval"
	"jigtrack/internal/database"
	"jigtrack/internal/handler"
	"jigtrack/internal/jobs"
	"jigtrack/internal/middleware"
	"jigtrack/internal/model"
	"jigtrack/internal/notify"
	"jigtrack/internal/repository"
	"jigtrack/internal/service"
	"jigtrack/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Jig Tracking API
// @version         1.0
// @description     Tracks production jigs, their individually tagged units, and the order workflow that moves them between storage, lines and vendors.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "jigtrack")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.WithError(err).Fatal("Database connection failed")
	}
	log.Info("Connected to PostgreSQL successfully")

	// WebSocket hub and the notifier riding on it
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	notifier := notify.NewHubNotifier(wsHub, log)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	jigRepo := repository.NewJigRepository(db)
	detailRepo := repository.NewJigDetailRepository(db)
	orderRepo := repository.NewJigOrderRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	masterRepo := repository.NewMasterDataRepository(db)
	approvalRepo := repository.NewApprovalCaseRepository(db)

	// Services
	approvalService := approval.NewService(approvalRepo, txManager, log)
	orderService := service.NewOrderService(
		orderRepo, detailRepo, ledgerRepo, userRepo, masterRepo,
		txManager, approvalService, notifier, log,
	)
	approvalService.RegisterHandler(model.ApprovalEntityOrder, orderService)
	jigService := service.NewJigService(jigRepo, detailRepo, ledgerRepo, masterRepo, txManager, log)
	stockService := service.NewStockService(jigRepo, detailRepo, ledgerRepo, txManager, log)

	// Handlers
	authHandler := handler.NewAuthHandler(userRepo)
	orderHandler := handler.NewOrderHandler(orderService)
	jigHandler := handler.NewJigHandler(jigService)
	stockHandler := handler.NewStockHandler(stockService)
	approvalHandler := handler.NewApprovalHandler(approvalService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	authHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	jigHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))

	// Background jobs
	recomputeJob := jobs.NewStockRecomputeJob(stockService, os.Getenv("STOCK_RECOMPUTE_SCHEDULE"), log)
	if err := recomputeJob.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start stock recompute job")
	}
	defer recomputeJob.Stop()

	port := envOr("PORT", "8080")
	log.WithField("port", port).Info("Server listening")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
