package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/boqflow/boqflow/internal/api"
	"github.com/boqflow/boqflow/internal/api/handlers"
	"github.com/boqflow/boqflow/internal/blob"
	"github.com/boqflow/boqflow/internal/config"
	"github.com/boqflow/boqflow/internal/email"
	"github.com/boqflow/boqflow/internal/logger"
	"github.com/boqflow/boqflow/internal/pdf"
	"github.com/boqflow/boqflow/internal/repository"
	"github.com/boqflow/boqflow/internal/service"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is a local development convenience only
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// Connect to the database
	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories (shared db connection)
	invoiceRepo := repository.NewInvoiceRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)

	// Redis is optional. Without it invoice numbering falls back to
	// counting existing rows, which is fine for a single instance.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, invoice numbering will use database fallback")
			redisClient = nil
		}
		cancel()
	}

	// Blob storage for invoice PDFs and site photos
	blobStore, err := blob.Open(context.Background(), blob.Config{
		Driver:      cfg.BlobDriver,
		FSRoot:      cfg.BlobFSRoot,
		BaseURL:     cfg.BlobBaseURL,
		S3Bucket:    cfg.BlobS3Bucket,
		S3Region:    cfg.BlobS3Region,
		S3Endpoint:  cfg.BlobS3Endpoint,
		S3PathStyle: cfg.BlobS3PathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}

	renderer := pdf.NewBasicRenderer()
	emailer := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	// Initialize services
	numbering := service.NewInvoiceNumbering(redisClient, invoiceRepo)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	catalogService := service.NewCatalogService(catalogRepo)
	invoiceService := service.NewInvoiceService(invoiceRepo, commentRepo, mediaRepo, catalogRepo, numbering, blobStore)
	lifecycleService := service.NewLifecycleService(invoiceRepo, tenantRepo, numbering, renderer, blobStore, emailer, service.LifecycleConfig{
		SendEmailOnApprove: cfg.SendEmailOnApprove,
		DefaultEmailTo:     cfg.DefaultInvoiceEmailTo,
	})
	syncService := service.NewSyncService(invoiceRepo, commentRepo)

	// Readiness probes the dependencies this process actually holds.
	// Redis is skipped when numbering runs on the database fallback.
	checks := []handlers.ReadinessCheck{
		{Name: "database", Probe: db.PingContext},
	}
	if redisClient != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	healthHandler := handlers.NewHealthHandler(version, checks...)

	// Set up router
	router := api.NewRouter(
		invoiceService,
		lifecycleService,
		catalogService,
		syncService,
		authService,
		healthHandler,
	)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting BoqFlow server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Info().Msg("Server exited gracefully")
}
