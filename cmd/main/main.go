package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"branch-inventory-service/internal/config"
	"branch-inventory-service/internal/events"
	"branch-inventory-service/internal/handlers"
	"branch-inventory-service/internal/jobs"
	"branch-inventory-service/internal/middleware"
	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Branch{},
		&models.RawMaterial{},
		&models.StockBatch{},
		&models.StockTransaction{},
		&models.StockLevel{},
		&models.StockAlert{},
		&models.MenuItem{},
		&models.BranchAvailability{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client (optional - caching degrades gracefully)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		} else {
			redisOpts.Password = secrets.GetRedisPassword()
			redisClient = redis.NewClient(redisOpts)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis")
			}
			cancel()
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var eventPublisher *events.StockEventPublisher
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewStockEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize repository and services
	repo := repository.NewInventoryRepository(db, redisClient)

	ledger := services.NewStockLedger(repo, eventPublisher, logger)
	tracker := services.NewBatchTracker(repo, logger)
	alertEngine := services.NewAlertEngine(repo, eventPublisher, logger, cfg.ExpiryLookaheadDays)
	resolver := services.NewAvailabilityResolver(repo, logger)
	purchaseOrders := services.NewPurchaseOrders(repo, ledger, logger)

	// Initialize handlers
	materialHandler := handlers.NewMaterialHandler(repo, tracker, ledger)
	stockHandler := handlers.NewStockHandler(repo, ledger)
	alertHandler := handlers.NewAlertHandler(repo, alertEngine)
	menuHandler := handlers.NewMenuHandler(repo, resolver)
	branchHandler := handlers.NewBranchHandler(repo)
	poHandler := handlers.NewPurchaseOrderHandler(repo, purchaseOrders)
	importHandler := handlers.NewImportHandler(tracker)
	healthHandler := handlers.NewHealthHandler(repo)

	// Start the periodic alert sweep
	alertJob := jobs.NewAlertCheckJob(alertEngine, repo, logger, time.Duration(cfg.AlertSweepIntervalSec)*time.Second)
	alertJob.Start()
	defer alertJob.Stop()

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("branch-inventory-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("branch-inventory-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "branch_inventory_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMiddleware := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("branch-inventory-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/health/extended", healthHandler.ExtendedHealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Authentication middleware using Istio JWT claims
	// Istio validates JWT and injects x-jwt-claim-* headers
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: false,
		SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
	}))
	api.Use(middleware.TenantMiddleware())
	api.Use(middleware.RoleMiddleware())

	// Raw material routes
	rawMaterials := api.Group("/raw-materials")
	{
		rawMaterials.POST("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), materialHandler.CreateRawMaterial)
		rawMaterials.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), materialHandler.ListRawMaterials)
		rawMaterials.GET("/low-stock", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), materialHandler.GetLowStock)
		rawMaterials.GET("/expiring-soon", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), materialHandler.GetExpiringSoon)
		rawMaterials.GET("/expired", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), materialHandler.GetExpired)
		rawMaterials.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), materialHandler.GetRawMaterial)
		rawMaterials.PUT("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), materialHandler.UpdateRawMaterial)

		// Import
		rawMaterials.GET("/import/template", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), importHandler.GetImportTemplate)
		rawMaterials.POST("/import", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), importHandler.ImportRawMaterials)

		// Destructive tenant-wide reset, admin role checked again in the service
		rawMaterials.POST("/clear-all", middleware.RequireRole("ADMIN"), materialHandler.ClearAll)
	}

	// Stock ledger routes
	stock := api.Group("/stock")
	{
		stock.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.GetStockLevels)
		stock.POST("/in", rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust), stockHandler.StockIn)
		stock.POST("/out", rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust), stockHandler.StockOut)
		stock.POST("/adjust", rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust), stockHandler.AdjustStock)
		stock.GET("/transactions", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.ListTransactions)
		stock.GET("/batches", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), stockHandler.ListBatches)
	}

	// Alert routes
	alerts := api.Group("/alerts")
	{
		alerts.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.ListAlerts)
		alerts.GET("/summary", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetSummary)
		alerts.POST("/check", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.CheckAlerts)
		alerts.POST("/clear-all", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.ClearAllAlerts)
		alerts.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetAlert)
		alerts.POST("/:id/acknowledge", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.AcknowledgeAlert)
		alerts.POST("/:id/resolve", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.ResolveAlert)
	}

	// Menu catalog routes
	menuItems := api.Group("/menu-items")
	{
		menuItems.POST("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), menuHandler.CreateMenuItem)
		menuItems.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), menuHandler.ListMenuItems)
		menuItems.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), menuHandler.GetMenuItem)
		menuItems.GET("/:id/availability", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), menuHandler.CheckAvailability)
		menuItems.PUT("/:id/availability", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), menuHandler.UpsertAvailability)
		menuItems.PUT("/:id/recipe", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), menuHandler.UpsertRecipe)
	}

	// Branch routes
	branches := api.Group("/branches")
	{
		branches.POST("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), branchHandler.CreateBranch)
		branches.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), branchHandler.ListBranches)
		branches.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), branchHandler.GetBranch)
	}

	// Purchase order routes
	purchaseOrderRoutes := api.Group("/purchase-orders")
	{
		purchaseOrderRoutes.POST("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), poHandler.CreatePurchaseOrder)
		purchaseOrderRoutes.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), poHandler.ListPurchaseOrders)
		purchaseOrderRoutes.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), poHandler.GetPurchaseOrder)
		purchaseOrderRoutes.POST("/:id/submit", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), poHandler.SubmitPurchaseOrder)
		purchaseOrderRoutes.POST("/:id/cancel", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), poHandler.CancelPurchaseOrder)
		purchaseOrderRoutes.POST("/:id/receive", rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust), poHandler.ReceivePurchaseOrder)
	}

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8088"
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Branch inventory service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down branch-inventory-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Branch inventory service stopped")
}
