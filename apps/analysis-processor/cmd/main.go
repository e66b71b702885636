package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nexfield/nexfield-api/apps/analysis-processor/internal/processor"
	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/db"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/services"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Application holds all dependencies for the Lambda handler
type Application struct {
	runProcessor *processor.RunProcessor
	logger       *zap.Logger
}

// HandleSQSEvent executes the queued analysis runs in one SQS batch. Only
// retryable outcomes are reported back as batch item failures; a completed
// or terminally failed run must not be redelivered and re-executed.
func (app *Application) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	logger.Info("Analysis processor handling SQS event",
		zap.Int("record_count", len(event.Records)))

	var completed, failed, retried int
	var batchFailures []events.SQSBatchItemFailure

	for _, record := range event.Records {
		var request awsclient.RunRequest
		if err := json.Unmarshal([]byte(record.Body), &request); err != nil {
			// A malformed message will never parse; retrying is pointless.
			logger.Error("Failed to unmarshal run request, dropping message",
				zap.String("message_id", record.MessageId),
				zap.Error(err))
			failed++
			continue
		}

		outcome := app.runProcessor.ProcessRunRequest(ctx, request)
		switch {
		case outcome.Completed:
			completed++
		case outcome.Retry:
			retried++
			batchFailures = append(batchFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		default:
			failed++
		}
	}

	logger.Info("Analysis processor batch finished",
		zap.Int("total", len(event.Records)),
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("left_for_redelivery", retried))

	return events.SQSEventResponse{BatchItemFailures: batchFailures}, nil
}

// LocalHandleRequest runs a single analysis outside Lambda. The target comes
// from RUN_ANALYSIS_ID so a developer can exercise the full queue path
// without a queue.
func (app *Application) LocalHandleRequest(ctx context.Context) error {
	rawID := os.Getenv("RUN_ANALYSIS_ID")
	if rawID == "" {
		return fmt.Errorf("RUN_ANALYSIS_ID environment variable is required for local runs")
	}
	analysisID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid RUN_ANALYSIS_ID %q: %w", rawID, err)
	}

	outcome := app.runProcessor.ProcessRunRequest(ctx, awsclient.RunRequest{
		AnalysisID:  analysisID,
		NotifyEmail: os.Getenv("RUN_NOTIFY_EMAIL"),
		EnqueuedAt:  time.Now().UTC(),
	})
	if outcome.Err != nil {
		return fmt.Errorf("local run of analysis %s did not complete: %w", outcome.AnalysisID, outcome.Err)
	}
	return nil
}

func main() {
	// Load .env file for local development
	err := godotenv.Load("../../.env")
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v. Proceeding with environment variables.", err)
	}

	stage, err := helpers.ResolveStage()
	if err != nil {
		log.Fatalf("Cannot start: %v", err)
	}

	// Initialize logger (AFTER stage validation)
	logger.InitLogger(stage)
	logger.Info("Lambda Cold Start: Initializing analysis processor for stage", zap.String("stage", stage))
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	// --- Database Connection Setup ---
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("Unable to parse database DSN", zap.Error(err))
	}
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 15
	connPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}
	// Do NOT close the pool here; it persists across warm Lambda invocations.

	dbQueries := db.New(connPool)

	// --- Notification Service (optional) ---
	var notificationService *services.NotificationService
	resendAPIKey := os.Getenv("RESEND_API_KEY")
	if resendAPIKey == "" {
		logger.Log.Warn("RESEND_API_KEY not set. Run outcome emails will be disabled.")
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
		logger.Info("Notification service initialized",
			zap.String("from_email", fromEmail),
			zap.String("from_name", fromName))
	}

	// --- Services ---
	rulesService := services.NewRulesService(dbQueries)
	analysisService := services.NewAnalysisService(dbQueries, connPool, rulesService)

	app := &Application{
		runProcessor: processor.NewRunProcessor(analysisService, notificationService, logger.Log),
		logger:       logger.Log,
	}

	if stage == helpers.StageLocal {
		if err := app.LocalHandleRequest(ctx); err != nil {
			logger.Fatal("Error in LocalHandleRequest", zap.Error(err))
		}
	} else {
		lambda.Start(app.HandleSQSEvent)
	}
}
