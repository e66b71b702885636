package processor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/services"
)

// RunProcessor executes queued analysis runs and notifies the requester of
// the outcome. Notification failures are logged but never fail the run.
type RunProcessor struct {
	analysisService *services.AnalysisService
	notifications   *services.NotificationService
	logger          *zap.Logger
}

// NewRunProcessor creates a run processor. The notification service may be
// nil when no email provider is configured.
func NewRunProcessor(analysisService *services.AnalysisService, notifications *services.NotificationService, logger *zap.Logger) *RunProcessor {
	return &RunProcessor{
		analysisService: analysisService,
		notifications:   notifications,
		logger:          logger,
	}
}

// RunOutcome records how one queued run request was disposed of. Retry marks
// outcomes that should be redelivered by the queue.
type RunOutcome struct {
	AnalysisID string
	Completed  bool
	Retry      bool
	Err        error
}

// ProcessRunRequest runs one queued analysis to completion.
func (p *RunProcessor) ProcessRunRequest(ctx context.Context, request awsclient.RunRequest) RunOutcome {
	outcome := RunOutcome{AnalysisID: request.AnalysisID.String()}

	result, err := p.analysisService.RunAnalysis(ctx, request.AnalysisID)
	switch {
	case err == nil:
		outcome.Completed = true
		p.logger.Info("Queued analysis run completed",
			zap.String("analysis_id", outcome.AnalysisID),
			zap.Int("result_count", result.ResultCount),
			zap.Int("failure_count", result.FailureCount),
			zap.Int64("total_liability_cents", result.Summary.TotalLiabilityCents))
		p.notifyCompleted(ctx, request, result)

	case errors.Is(err, services.ErrAnalysisNotFound):
		// Deleted between enqueue and pickup. Nothing to run, nothing to
		// retry.
		outcome.Err = err
		p.logger.Warn("Queued analysis no longer exists",
			zap.String("analysis_id", outcome.AnalysisID))

	case errors.Is(err, services.ErrAnalysisNotRunnable):
		// Another run holds the lock; redeliver later.
		outcome.Err = err
		outcome.Retry = true
		p.logger.Warn("Queued analysis is already running, leaving for redelivery",
			zap.String("analysis_id", outcome.AnalysisID))

	default:
		// The run executed and failed; the cause is recorded on the
		// analysis. Redelivering the message would repeat the same failure.
		outcome.Err = err
		p.logger.Error("Queued analysis run failed",
			zap.String("analysis_id", outcome.AnalysisID),
			zap.Error(err))
		p.notifyFailed(ctx, request, err)
	}

	return outcome
}

func (p *RunProcessor) notifyCompleted(ctx context.Context, request awsclient.RunRequest, result *services.AnalysisRunResult) {
	if p.notifications == nil || request.NotifyEmail == "" {
		return
	}

	if err := p.notifications.SendAnalysisCompleted(ctx, request.NotifyEmail, result.Analysis, result.Summary, result.WarningCount); err != nil {
		p.logger.Error("Failed to send completion notification",
			zap.String("analysis_id", request.AnalysisID.String()),
			zap.Error(err))
	}
}

func (p *RunProcessor) notifyFailed(ctx context.Context, request awsclient.RunRequest, runErr error) {
	if p.notifications == nil || request.NotifyEmail == "" {
		return
	}

	analysis, err := p.analysisService.GetAnalysis(ctx, request.AnalysisID)
	if err != nil {
		p.logger.Error("Failed to load analysis for failure notification",
			zap.String("analysis_id", request.AnalysisID.String()),
			zap.Error(err))
		return
	}

	reason := analysis.FailureReason
	if reason == "" {
		reason = runErr.Error()
	}

	if err := p.notifications.SendAnalysisFailed(ctx, request.NotifyEmail, *analysis, reason); err != nil {
		p.logger.Error("Failed to send failure notification",
			zap.String("analysis_id", request.AnalysisID.String()),
			zap.Error(err))
	}
}
