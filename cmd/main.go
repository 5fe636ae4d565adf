package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/config"
	"pricing-sync-service/internal/database"
	"pricing-sync-service/internal/handlers"
	"pricing-sync-service/internal/middleware"
	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/repository"
	"pricing-sync-service/internal/services"
)

// promotionSweepInterval controls how often due promotion windows are
// activated and expired.
const promotionSweepInterval = time.Minute

func main() {
	// Load configuration
	cfg := config.Load()
	logger := config.InitLogger(cfg)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Item{},
		&models.Outlet{},
		&models.OutletBinding{},
		&models.ExportRecord{},
		&models.ImportBatchRecord{},
	); err != nil {
		logger.Warnf("Auto-migration failed: %v", err)
	}
	logger.Info("Database models migrated")

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	outletRepo := repository.NewOutletRepository(db)
	bindingRepo := repository.NewBindingRepository(db)
	exportRepo := repository.NewExportRepository(db)

	// Initialize services
	semaphore := services.NewOutletSemaphore(&services.OutletConcurrencyConfig{
		MaxConcurrentBatches: 4,
		QueueTimeout:         cfg.ImportQueueTimeout,
	})
	retrier := services.NewRetrier(&services.RetryConfig{
		MaxRetries:     cfg.StorageMaxRetries,
		InitialBackoff: cfg.StorageRetryBackoff,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	})
	cascadeService := services.NewCascadeService(itemRepo, bindingRepo, logger)
	importService := services.NewImportService(itemRepo, bindingRepo, exportRepo, cascadeService, semaphore, retrier,
		services.ImportSettings{
			ChunkSize:    cfg.ImportChunkSize,
			ChunksPerSec: cfg.ImportChunksPerSec,
			MaxErrors:    cfg.ImportMaxErrors,
		}, logger)
	exportService := services.NewExportService(bindingRepo, exportRepo, outletRepo, logger)
	erpExportService := services.NewERPExportService(bindingRepo, exportRepo, outletRepo, cfg.ERPPartyCode, cfg.ExportLocation, logger)
	promotionService := services.NewPromotionService(bindingRepo, logger)
	catalogService := services.NewCatalogService(itemRepo, outletRepo, bindingRepo, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, semaphore)
	importHandler := handlers.NewImportHandler(importService)
	rulesHandler := handlers.NewRulesHandler(importService)
	exportHandler := handlers.NewExportHandler(exportService, erpExportService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	promotionHandler := handlers.NewPromotionHandler(promotionService)

	// Background promotion sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runPromotionSweeper(sweepCtx, promotionService, logger)

	// Setup router
	router := setupRouter(cfg, logger, healthHandler, importHandler, rulesHandler, exportHandler, catalogHandler, promotionHandler)

	// Start server
	logger.Infof("Pricing Sync Service starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// runPromotionSweeper activates and expires due promotion windows on a
// fixed interval until the context is cancelled.
func runPromotionSweeper(ctx context.Context, promotionService *services.PromotionService, logger *logrus.Logger) {
	ticker := time.NewTicker(promotionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := promotionService.Sweep(ctx, now); err != nil {
				logger.WithError(err).Error("Promotion sweep failed")
			}
		}
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	healthHandler *handlers.HealthHandler,
	importHandler *handlers.ImportHandler,
	rulesHandler *handlers.RulesHandler,
	exportHandler *handlers.ExportHandler,
	catalogHandler *handlers.CatalogHandler,
	promotionHandler *handlers.PromotionHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Request logging middleware
	router.Use(middleware.RequestLogger(logger))

	// Security headers middleware
	router.Use(middleware.SecurityHeaders())

	// CORS middleware
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}
	router.Use(middleware.CORS(origins))

	// Caller identity for audit fields
	router.Use(middleware.UserIdentity())

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/stats", healthHandler.Stats)

	v1 := router.Group("/api/v1")
	{
		// Inbound price/stock batches
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.CreateBatch)
			imports.POST("/upload", importHandler.UploadCSV)
		}

		// Margin and stock configuration rules
		rules := v1.Group("/rules")
		{
			rules.POST("/margins", rulesHandler.ApplyMarginRules)
			rules.POST("/stock", rulesHandler.ApplyStockRules)
		}

		// Outbound feeds and audit trail
		exports := v1.Group("/exports")
		{
			exports.POST("/outlets/:id", exportHandler.ExportOutlet)
			exports.POST("/erp", exportHandler.ExportERP)
			exports.GET("", exportHandler.History)
		}

		// Catalog items and outlets
		items := v1.Group("/items")
		{
			items.GET("", catalogHandler.ListItems)
			items.POST("", catalogHandler.CreateItem)
			items.GET("/:id", catalogHandler.GetItem)
			items.PATCH("/:id/locks", catalogHandler.SetLocks)
			items.DELETE("/:id/bindings/:outletId", catalogHandler.ResetBinding)
		}

		outlets := v1.Group("/outlets")
		{
			outlets.GET("", catalogHandler.ListOutlets)
			outlets.POST("", catalogHandler.CreateOutlet)
			outlets.GET("/:id", catalogHandler.GetOutlet)
		}

		// Promotion windows
		promotions := v1.Group("/promotions")
		{
			promotions.POST("", promotionHandler.Schedule)
			promotions.DELETE("/items/:itemId/outlets/:outletId", promotionHandler.Cancel)
			promotions.POST("/sweep", promotionHandler.Sweep)
		}
	}

	return router
}
