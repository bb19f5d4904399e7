package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fiscal-sentinel/internal/api"
	"fiscal-sentinel/internal/api/handlers"
	"fiscal-sentinel/internal/repository"
	"fiscal-sentinel/internal/service"
	"fiscal-sentinel/migrations"
	"fiscal-sentinel/pkg/auth"
	"fiscal-sentinel/pkg/config"
	"fiscal-sentinel/pkg/logger"
	"fiscal-sentinel/pkg/postgres"

	"go.uber.org/zap"
)

// @title Fiscal Sentinel API
// @version 1.0
// @description Financial monitoring backend: transaction imports and conversational analysis.

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Fiscal Sentinel service")

	// Apply schema migrations before opening the pool
	if err := postgres.RunMigrations(&cfg.Database, migrations.FS, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	convRepo := repository.NewConversationRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	analyzeService := service.NewAnalyzeService(convRepo, txRepo, llmService, cfg.Import.HistoryLimit, appLogger)

	previewStore := service.NewPreviewStore(cfg.Import.PreviewDir, appLogger)
	importService := service.NewImportService(txRepo, previewStore, &cfg.Import, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	analyzeHandler := handlers.NewAnalyzeHandler(analyzeService, appLogger)
	txHandler := handlers.NewTransactionHandler(txRepo, importService, appLogger)

	// Multipart framing adds overhead on top of the 10 MiB file ceiling;
	// the exact limit is enforced in the import service.
	bodyLimit := int(cfg.Import.MaxFileBytes) + 1024*1024

	app := api.SetupRouter(authHandler, analyzeHandler, txHandler, jwtManager, bodyLimit, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
