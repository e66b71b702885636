package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/nexfield/nexfield-api/apps/api/handlers"
	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/db"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/middleware"
	"github.com/nexfield/nexfield-api/libs/go/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handler Definitions
var (
	healthHandler   *handlers.HealthHandler
	analysisHandler *handlers.AnalysisHandler
	rulesHandler    *handlers.RulesHandler

	// Database
	dbQueries *db.Queries

	// Services
	commonServices *handlers.CommonServices
)

func InitializeHandlers() {
	// .env only exists for local development; deployed stages carry real
	// environment variables.
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err) // Use basic log before logger init
	}

	stage, err := helpers.ResolveStage()
	if err != nil {
		log.Fatalf("Cannot start: %v", err) // Use basic log before logger init
	}

	logger.InitLogger(stage)
	logger.Info("Initializing handlers for stage", zap.String("stage", stage))

	ctx := context.Background()

	// --- Database ---
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("Unable to parse database DSN", zap.Error(err))
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Minute * 30 // Shorter lifetime to prevent cached plan issues
	poolConfig.MaxConnIdleTime = time.Minute * 15

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool with config", zap.Error(err))
	}

	dbQueries = db.New(dbpool)

	// --- Email Notifications ---
	resendAPIKey := os.Getenv("RESEND_API_KEY")
	var notificationService *services.NotificationService
	if resendAPIKey == "" {
		logger.Log.Warn("RESEND_API_KEY not set. Email notifications will be disabled.")
	} else {
		fromEmail := os.Getenv("EMAIL_FROM_ADDRESS")
		if fromEmail == "" {
			fromEmail = "noreply@nexfield.io"
		}
		fromName := os.Getenv("EMAIL_FROM_NAME")
		if fromName == "" {
			fromName = "Nexfield"
		}
		notificationService = services.NewNotificationService(resendAPIKey, fromEmail, fromName)
	}

	// --- Run Queue Client ---
	// Async runs are rejected with 503 when no queue is configured.
	var runQueue *awsclient.RunQueueClient
	queueURL := os.Getenv("SQS_QUEUE_URL")
	if queueURL == "" {
		logger.Log.Warn("SQS_QUEUE_URL not set. Async analysis runs will be unavailable.")
	} else {
		runQueue, err = awsclient.NewRunQueueClient(ctx, queueURL)
		if err != nil {
			logger.Fatal("Unable to create run queue client", zap.Error(err))
		}
	}

	// --- Services ---
	rulesService := services.NewRulesService(dbQueries)
	analysisService := services.NewAnalysisService(dbQueries, dbpool, rulesService)

	commonServices = &handlers.CommonServices{
		NotificationService: notificationService,
		RunQueue:            runQueue,
	}

	// API Handler initialization
	healthHandler = handlers.NewHealthHandler(dbpool)
	analysisHandler = handlers.NewAnalysisHandler(commonServices, analysisService, logger.Log)
	rulesHandler = handlers.NewRulesHandler(rulesService, logger.Log)
}

func InitializeRoutes(router *gin.Engine) {
	router.Use(configureCORS())
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.DefaultRateLimiter.Middleware())

	// Body-level request/response logging is only safe off release builds;
	// release builds get the one-line completion log instead.
	isDevelopment := os.Getenv("GIN_MODE") != "release"
	router.Use(middleware.EnhancedLoggingMiddleware(isDevelopment))
	if !isDevelopment {
		router.Use(middleware.RequestLoggingMiddleware())
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health answers under the stage prefix too so the raw Lambda URL can be
	// probed without the custom domain mapping.
	router.GET("/:stage/health", healthHandler.Health)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Analysis lifecycle
		analyses := v1.Group("/analyses")
		{
			analyses.POST("", middleware.ValidateInput(middleware.CreateAnalysisValidation), analysisHandler.CreateAnalysis)
			analyses.GET("", middleware.ValidateQueryParams(middleware.ListQueryValidation), analysisHandler.ListAnalyses)
			analyses.GET("/:analysis_id", analysisHandler.GetAnalysis)
			analyses.DELETE("/:analysis_id", analysisHandler.DeleteAnalysis)

			// Ledger import and inspection
			analyses.POST("/:analysis_id/transactions", middleware.ValidateInput(middleware.ImportTransactionsValidation), analysisHandler.ImportTransactions)
			analyses.GET("/:analysis_id/transactions", middleware.ValidateQueryParams(middleware.ListQueryValidation), analysisHandler.ListTransactions)

			// Physical presence declarations
			analyses.POST("/:analysis_id/physical-presence", middleware.ValidateInput(middleware.CreatePhysicalPresenceValidation), analysisHandler.AddPhysicalPresence)
			analyses.GET("/:analysis_id/physical-presence", analysisHandler.ListPhysicalPresence)

			// Engine runs are expensive; rate limit them harder
			analyses.POST("/:analysis_id/run", middleware.StrictRateLimiter.Middleware(), middleware.ValidateQueryParams(middleware.RunQueryValidation), analysisHandler.RunAnalysis)

			// Run output
			analyses.GET("/:analysis_id/results", analysisHandler.GetResults)
			analyses.GET("/:analysis_id/summary", analysisHandler.GetSummary)
			analyses.GET("/:analysis_id/diagnostics", analysisHandler.GetDiagnostics)
		}

		// Rule catalog management
		jurisdictions := v1.Group("/jurisdictions")
		{
			// Resolved view of the rules in force on a date
			jurisdictions.GET("/:code/rules", rulesHandler.GetResolvedRules)

			jurisdictions.POST("/:code/threshold-rules", rulesHandler.CreateThresholdRule)
			jurisdictions.GET("/:code/threshold-rules", rulesHandler.ListThresholdRules)
			jurisdictions.POST("/:code/tax-rates", rulesHandler.CreateTaxRate)
			jurisdictions.GET("/:code/tax-rates", rulesHandler.ListTaxRates)
			jurisdictions.POST("/:code/marketplace-rules", rulesHandler.CreateMarketplaceRule)
			jurisdictions.GET("/:code/marketplace-rules", rulesHandler.ListMarketplaceRules)
			jurisdictions.POST("/:code/interest-rules", rulesHandler.CreateInterestPenaltyRule)
			jurisdictions.GET("/:code/interest-rules", rulesHandler.ListInterestPenaltyRules)
		}
	}
}

// csvEnv reads a comma-separated environment variable, trimming whitespace
// around each entry. The fallback is used when the variable is unset.
func csvEnv(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// configureCORS builds the CORS policy from the environment. The defaults
// suit local development against a frontend on localhost:3000; deployed
// stages override them via CORS_* variables.
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = csvEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	corsConfig.AllowMethods = csvEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	corsConfig.AllowHeaders = csvEnv("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Correlation-ID"})

	// Browsers can only read the throttling and tracing headers if they are
	// exposed explicitly.
	corsConfig.ExposeHeaders = csvEnv("CORS_EXPOSED_HEADERS", []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"Retry-After",
		"X-Correlation-ID",
	})

	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
