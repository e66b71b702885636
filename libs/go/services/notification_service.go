package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// NotificationService emails run outcomes to whoever requested a queued run.
// Notifications are best-effort: a failed send is logged and reported but
// never alters the analysis state.
type NotificationService struct {
	client    *resend.Client
	logger    *zap.Logger
	fromEmail string
	fromName  string
}

// NewNotificationService creates a new notification service
func NewNotificationService(apiKey string, fromEmail string, fromName string) *NotificationService {
	return &NotificationService{
		client:    resend.NewClient(apiKey),
		logger:    logger.Log,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// AnalysisEmailData feeds the completion and failure templates.
type AnalysisEmailData struct {
	AnalysisName             string
	PeriodStart              string
	PeriodEnd                string
	TotalLiability           string
	TotalBaseTax             string
	TotalInterest            string
	TotalPenalties           string
	TotalJurisdictions       int
	JurisdictionsWithNexus   int
	JurisdictionsApproaching int
	ResultCount              int
	WarningCount             int
	FailureReason            string
}

// SendAnalysisCompleted emails the run's headline figures
func (s *NotificationService) SendAnalysisCompleted(ctx context.Context, toEmail string, analysis business.Analysis, summary business.AnalysisSummary, warningCount int) error {
	data := AnalysisEmailData{
		AnalysisName:             analysis.Name,
		PeriodStart:              analysis.PeriodStart.Format(constants.DateLayout),
		PeriodEnd:                analysis.PeriodEnd.Format(constants.DateLayout),
		TotalLiability:           helpers.FormatCentsUSD(summary.TotalLiabilityCents),
		TotalBaseTax:             helpers.FormatCentsUSD(summary.TotalBaseTaxCents),
		TotalInterest:            helpers.FormatCentsUSD(summary.TotalInterestCents),
		TotalPenalties:           helpers.FormatCentsUSD(summary.TotalPenaltiesCents),
		TotalJurisdictions:       summary.TotalJurisdictions,
		JurisdictionsWithNexus:   summary.JurisdictionsWithNexus,
		JurisdictionsApproaching: summary.JurisdictionsApproaching,
		ResultCount:              summary.ResultCount,
		WarningCount:             warningCount,
	}

	htmlBody, err := renderEmailTemplate(analysisCompletedHTML, data)
	if err != nil {
		return fmt.Errorf("failed to render completion email: %w", err)
	}
	textBody, err := renderEmailTemplate(analysisCompletedText, data)
	if err != nil {
		return fmt.Errorf("failed to render completion email: %w", err)
	}

	subject := fmt.Sprintf("Nexus analysis complete: %s", analysis.Name)
	return s.send(ctx, toEmail, subject, htmlBody, textBody, "completed", analysis)
}

// SendAnalysisFailed emails the failure cause so the requester is not left
// polling a failed run
func (s *NotificationService) SendAnalysisFailed(ctx context.Context, toEmail string, analysis business.Analysis, reason string) error {
	data := AnalysisEmailData{
		AnalysisName:  analysis.Name,
		PeriodStart:   analysis.PeriodStart.Format(constants.DateLayout),
		PeriodEnd:     analysis.PeriodEnd.Format(constants.DateLayout),
		FailureReason: reason,
	}

	htmlBody, err := renderEmailTemplate(analysisFailedHTML, data)
	if err != nil {
		return fmt.Errorf("failed to render failure email: %w", err)
	}
	textBody, err := renderEmailTemplate(analysisFailedText, data)
	if err != nil {
		return fmt.Errorf("failed to render failure email: %w", err)
	}

	subject := fmt.Sprintf("Nexus analysis failed: %s", analysis.Name)
	return s.send(ctx, toEmail, subject, htmlBody, textBody, "failed", analysis)
}

func (s *NotificationService) send(ctx context.Context, toEmail, subject, htmlBody, textBody, event string, analysis business.Analysis) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
		Headers: map[string]string{
			"X-Entity-Ref-ID": uuid.New().String(),
		},
		Tags: []resend.Tag{
			{Name: "category", Value: "analysis"},
			{Name: "event", Value: event},
		},
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("Failed to send analysis notification",
			zap.Error(err),
			zap.String("to", toEmail),
			zap.String("analysis_id", analysis.ID.String()),
			zap.String("event", event))
		return fmt.Errorf("failed to send notification: %w", err)
	}

	s.logger.Info("Analysis notification sent",
		zap.String("email_id", sent.Id),
		zap.String("to", toEmail),
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("event", event))
	return nil
}

func renderEmailTemplate(templateStr string, data AnalysisEmailData) (string, error) {
	tmpl, err := template.New("notification").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const analysisCompletedHTML = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f4f4f4; padding: 20px; text-align: center; }
        .content { padding: 20px; }
        .figures { width: 100%; border-collapse: collapse; }
        .figures td { padding: 6px 10px; border-bottom: 1px solid #eee; }
        .total { font-size: 18px; font-weight: bold; }
        .footer { text-align: center; padding: 20px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h2>Nexus Analysis Complete</h2>
        </div>
        <div class="content">
            <p>Your analysis <strong>{{.AnalysisName}}</strong> ({{.PeriodStart}} to {{.PeriodEnd}}) has finished.</p>
            <p class="total">Estimated total liability: {{.TotalLiability}}</p>
            <table class="figures">
                <tr><td>Base tax</td><td>{{.TotalBaseTax}}</td></tr>
                <tr><td>Interest</td><td>{{.TotalInterest}}</td></tr>
                <tr><td>Penalties</td><td>{{.TotalPenalties}}</td></tr>
                <tr><td>Jurisdictions evaluated</td><td>{{.TotalJurisdictions}}</td></tr>
                <tr><td>Jurisdictions with nexus</td><td>{{.JurisdictionsWithNexus}}</td></tr>
                <tr><td>Approaching threshold</td><td>{{.JurisdictionsApproaching}}</td></tr>
                <tr><td>Jurisdiction-year results</td><td>{{.ResultCount}}</td></tr>
                <tr><td>Warnings</td><td>{{.WarningCount}}</td></tr>
            </table>
            <p>Full results, per-year detail and diagnostics are available through the API.</p>
        </div>
        <div class="footer">
            <p>Figures are estimates for planning purposes, not filed returns.</p>
        </div>
    </div>
</body>
</html>`

const analysisCompletedText = `Your analysis {{.AnalysisName}} ({{.PeriodStart}} to {{.PeriodEnd}}) has finished.

Estimated total liability: {{.TotalLiability}}

Base tax:                  {{.TotalBaseTax}}
Interest:                  {{.TotalInterest}}
Penalties:                 {{.TotalPenalties}}
Jurisdictions evaluated:   {{.TotalJurisdictions}}
Jurisdictions with nexus:  {{.JurisdictionsWithNexus}}
Approaching threshold:     {{.JurisdictionsApproaching}}
Jurisdiction-year results: {{.ResultCount}}
Warnings:                  {{.WarningCount}}

Full results, per-year detail and diagnostics are available through the API.
Figures are estimates for planning purposes, not filed returns.`

const analysisFailedHTML = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #dc3545; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; }
        .reason { background-color: #f8d7da; border: 1px solid #dc3545; padding: 10px; margin: 10px 0; }
        .footer { text-align: center; padding: 20px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h2>Nexus Analysis Failed</h2>
        </div>
        <div class="content">
            <p>Your analysis <strong>{{.AnalysisName}}</strong> ({{.PeriodStart}} to {{.PeriodEnd}}) could not be completed.</p>
            <div class="reason">
                <p>{{.FailureReason}}</p>
            </div>
            <p>Previously computed results, if any, are unchanged. Fix the underlying problem and run the analysis again.</p>
        </div>
        <div class="footer">
            <p>Figures are estimates for planning purposes, not filed returns.</p>
        </div>
    </div>
</body>
</html>`

const analysisFailedText = `Your analysis {{.AnalysisName}} ({{.PeriodStart}} to {{.PeriodEnd}}) could not be completed.

Reason: {{.FailureReason}}

Previously computed results, if any, are unchanged. Fix the underlying
problem and run the analysis again.`
